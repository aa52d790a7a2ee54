package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/go-novel-comic-kit/internal/config"
	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	engine "github.com/shouni/go-novel-comic-kit/pkg/config"
	"github.com/shouni/go-novel-comic-kit/pkg/pipeline"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

const (
	defaultHTTPTimeout       = 30 * time.Second
	defaultGeminiTemperature = float32(0.2)
)

// buildCollaborators は BuildAppContext が使うコラボレーターの構築関数です。
var buildCollaborators = BuildCollaborators

// BuildAppContext は設定から外部クライアント、アダプター、パイプラインを組み立てます。
// APIキーがない場合や --offline 指定時は、外部モデルを使わないオフライン構成になるのだ。
// 外部モデルの初期化に失敗した場合も実行は中断せず、オフライン構成に切り替えます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	engineCfg := cfg.EngineConfig()

	reg := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(reg)

	offline := cfg.Options.Offline || engineCfg.GeminiAPIKey == ""
	analyzer, renderer, err := buildCollaborators(ctx, engineCfg, offline)
	if err != nil {
		slog.WarnContext(ctx, "外部モデルの初期化に失敗したため、オフラインで実行します", slog.Any("error", err))
		metrics.Fallback(ctx, adapters.StageSetup, err)
		analyzer, renderer, offline = adapters.Offline{}, adapters.Offline{}, true
	}

	p := pipeline.New(engineCfg, pipeline.Dependencies{
		Analyzer:       analyzer,
		Renderer:       renderer,
		AnalysisPrompt: prompts.MustTextPromptBuilder(),
		ImagePrompt:    prompts.NewImagePromptBuilder(engineCfg.StyleSuffix),
		Metrics:        metrics,
	})

	appCtx := NewAppContext(cfg, engineCfg, p, metrics, reg, offline)
	return &appCtx, nil
}

// BuildCollaborators は Analyzer と Renderer を構築します。offline の場合は adapters.Offline を返します。
func BuildCollaborators(ctx context.Context, cfg engine.Config, offline bool) (adapters.Analyzer, adapters.Renderer, error) {
	if offline {
		slog.WarnContext(ctx, "外部モデルを使わずにオフラインで実行します。すべての解析と画像はフォールバックになります")
		return adapters.Offline{}, adapters.Offline{}, nil
	}

	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}

	analyzer, err := adapters.NewGeminiAnalyzer(aiClient, adapters.AnalyzerOptions{
		Model:        cfg.GeminiModel,
		RateInterval: cfg.RateInterval,
		Timeout:      cfg.RequestTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Analyzerの初期化に失敗しました: %w", err)
	}

	imgGen, err := InitializeImageGenerator(httpkit.New(defaultHTTPTimeout), aiClient, cfg.ImageModel)
	if err != nil {
		return nil, nil, err
	}
	uploader, ok := aiClient.(adapters.FileUploader)
	if !ok {
		slog.WarnContext(ctx, "AIクライアントが File API のアップロードに対応していないため、ローカルの参照画像は使用されません")
	}
	renderer, err := adapters.NewGeminiRenderer(imgGen, adapters.RendererOptions{
		RateInterval: cfg.RateInterval,
		Timeout:      cfg.RequestTimeout,
		Uploader:     uploader,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Rendererの初期化に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Gemini コラボレーターを初期化しました",
		slog.String("text_model", cfg.GeminiModel),
		slog.String("image_model", cfg.ImageModel),
		slog.Duration("rate_interval", cfg.RateInterval),
	)
	return analyzer, renderer, nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// InitializeImageGenerator は参照画像キャッシュ付きの ImageGenerator を初期化します。
func InitializeImageGenerator(httpClient httpkit.ClientInterface, aiClient gemini.GenerativeModel, model string) (generator.ImageGenerator, error) {
	// 参照画像のダウンロード結果を保持するキャッシュ
	imgCache := cache.New(30*time.Minute, 1*time.Hour)
	cacheTTL := 1 * time.Hour

	core, err := generator.NewGeminiImageCore(httpClient, imgCache, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗しました: %w", err)
	}

	imgGen, err := generator.NewGeminiGenerator(core, aiClient, model)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗しました: %w", err)
	}
	return imgGen, nil
}
