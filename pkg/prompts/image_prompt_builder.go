package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

const defaultImageStyle = "Modern manhwa/webtoon style, clean lines, vibrant colors"

// ImagePromptBuilder は、レジストリのキャラクター・ロケーション情報から画像生成プロンプトを構築します。
type ImagePromptBuilder struct {
	styleSuffix string
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(styleSuffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{styleSuffix: strings.TrimSpace(styleSuffix)}
}

func (pb *ImagePromptBuilder) style() string {
	if pb.styleSuffix == "" {
		return defaultImageStyle
	}
	return pb.styleSuffix
}

// BuildCharacter はキャラクター立ち絵用のプロンプトを生成します。
func (pb *ImagePromptBuilder) BuildCharacter(char domain.Character) (string, string) {
	prompt := fmt.Sprintf(characterTemplate, char.Name, char.Description, char.VisualTraits, pb.style())
	return prompt, MangaNegativePrompt
}

// BuildLocation は背景画像用のプロンプトを生成し、人物に関する語を取り除きます。
func (pb *ImagePromptBuilder) BuildLocation(loc domain.Location) (string, string) {
	prompt := fmt.Sprintf(locationTemplate, loc.Name, loc.Description, loc.TransitionType.OrDefault(), pb.style())
	return SanitizeLocationPrompt(prompt), MangaNegativePrompt + ", " + LocationNegativePrompt
}

// BuildPanel はパネル合成用のプロンプトを生成します。
// chars と loc はアセットが解決済みのものだけを渡し、それぞれの一貫性保持を指示します。
// 冗長判定で反転されたパネルは、元の構図ではなく反転後のアングルに合わせた構図を指示します。
func (pb *ImagePromptBuilder) BuildPanel(panel domain.Panel, chars []domain.Character, loc *domain.Location) (string, string) {
	composition := panel.CompositionPrompt
	if panel.Toggled {
		composition = fmt.Sprintf(reframedComposition, panel.CameraAngle.Shot(), panel.PanelType)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(panelTemplate,
		panel.Description,
		composition,
		panel.PanelType,
		panel.CameraAngle,
		strings.Join(panel.Characters, ", "),
		panel.Location,
		pb.style(),
	))

	if len(chars) > 0 || loc != nil {
		sb.WriteString("\n\n### REFERENCE ASSETS (STRICT IDENTITY) ###\n")
		for _, c := range chars {
			traits := c.VisualTraits
			if traits == "" {
				traits = "None"
			}
			sb.WriteString(fmt.Sprintf("- Character %s (use consistent appearance): {%s}\n", c.Name, traits))
		}
		if loc != nil {
			sb.WriteString(fmt.Sprintf("- Location: %s (use consistent appearance)\n", loc.Name))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(CinematicTags)

	return sb.String(), MangaNegativePrompt
}
