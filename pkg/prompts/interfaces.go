package prompts

import "github.com/shouni/go-novel-comic-kit/pkg/domain"

// AnalysisPrompt は、解析用AIプロンプトを構築する契約です。
type AnalysisPrompt interface {
	// Build は、指定されたモード（例: "entities", "panels"）とデータに基づいてプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}

// ImagePrompt は、画像生成プロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildCharacter はキャラクター立ち絵用のプロンプトとネガティブプロンプトを生成します。
	BuildCharacter(char domain.Character) (userPrompt string, negativePrompt string)
	// BuildLocation は人物を含まない背景画像用のプロンプトとネガティブプロンプトを生成します。
	BuildLocation(loc domain.Location) (userPrompt string, negativePrompt string)
	// BuildPanel はキャラクターと背景アセットを合成するパネル用のプロンプトとネガティブプロンプトを生成します。
	BuildPanel(panel domain.Panel, chars []domain.Character, loc *domain.Location) (userPrompt string, negativePrompt string)
}
