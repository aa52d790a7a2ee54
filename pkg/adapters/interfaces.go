package adapters

import (
	"context"
	"errors"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

var (
	// ErrUnavailable は外部モデルが利用できない（未設定・オフライン）ことを示します。
	ErrUnavailable = errors.New("外部モデルが利用できません")
	// ErrEmptyResponse は外部モデルが空の応答を返したことを示します。
	ErrEmptyResponse = errors.New("外部モデルの応答が空です")
)

// Analyzer はプロンプトを受け取り構造化テキストを返す解析コラボレーターなのだ。
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Renderer はプロンプトと参照画像から画像データを生成する描画コラボレーターなのだ。
// Data が空の応答はエラーではなく、呼び出し側がプレースホルダーで補います。
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

// RenderRequest は画像生成リクエストです。
type RenderRequest struct {
	Prompt         string
	NegativePrompt string
	References     []string // 参照画像のパス（キャラクター・ロケーションのアセット）
	Seed           int64    // 0 はシード指定なし
	AspectRatio    string
}

// RenderResult は画像生成の結果です。
type RenderResult struct {
	Data     []byte
	MimeType string
}

// ImageAdapter は個別パネル（1枚）の生成を担うのだ
type ImageAdapter interface {
	GenerateMangaPanel(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error)
}

// MangaPageAdapter は複数の参照画像を伴う生成を担うのだ
type MangaPageAdapter interface {
	GenerateMangaPage(ctx context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error)
}

// ImageGenerator は両方の生成方式を備えた画像生成エンジンです。
type ImageGenerator interface {
	ImageAdapter
	MangaPageAdapter
}
