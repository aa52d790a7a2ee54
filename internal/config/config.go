package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	engine "github.com/shouni/go-novel-comic-kit/pkg/config"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiImageModel  string
	ImagePromptSuffix string
	OutputDir         string
	PanelThreshold    float64
	RateInterval      time.Duration

	Options ProcessOptions
}

// ProcessOptions は CLI フラグから渡される実行時のパラメータなのだ。
type ProcessOptions struct {
	InputFile      string        // --input-file
	OutputDir      string        // --output-dir
	AIModel        string        // --model
	ImageModel     string        // --image-model
	Threshold      float64       // --threshold
	MinPanels      int           // --min-panels
	MaxPanels      int           // --max-panels
	Concurrency    int           // --concurrency
	RequestTimeout time.Duration // --request-timeout
	Offline        bool          // --offline
	ResultFile     string        // --result-file
	MetricsFile    string        // --metrics-file
	MetricsPushURL string        // --metrics-push-url
	Verbose        bool          // --verbose
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
// .env が存在しない場合は環境変数のみを使います。
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env を読み込めなかったため、環境変数のみを使用します", slog.Any("error", err))
	}

	return &Config{
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.GetEnv("GEMINI_MODEL", engine.DefaultGeminiModel),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", engine.DefaultImageModel),
		ImagePromptSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", engine.DefaultStyleSuffix),
		OutputDir:         envutil.GetEnv("COMIC_OUTPUT_DIR", engine.DefaultOutputDir),
		PanelThreshold:    parseFloatEnv("PANEL_SIMILARITY_THRESHOLD", engine.DefaultRedundancyThreshold),
		RateInterval:      parseDurationEnv("RATE_INTERVAL", engine.DefaultRateInterval),
	}
}

// EngineConfig は環境設定と CLI オプションを合成したエンジン設定を返します。
// 空やゼロのオプションは環境設定の値を維持するのだ。
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.GeminiAPIKey = c.GeminiAPIKey
	cfg.GeminiModel = c.GeminiModel
	cfg.ImageModel = c.GeminiImageModel
	cfg.StyleSuffix = c.ImagePromptSuffix
	cfg.OutputDir = c.OutputDir
	cfg.RedundancyThreshold = c.PanelThreshold
	cfg.RateInterval = c.RateInterval

	opts := c.Options
	if opts.AIModel != "" {
		cfg.GeminiModel = opts.AIModel
	}
	if opts.ImageModel != "" {
		cfg.ImageModel = opts.ImageModel
	}
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.Threshold > 0 {
		cfg.RedundancyThreshold = opts.Threshold
	}
	if opts.MinPanels > 0 {
		cfg.MinPanelsPerScene = opts.MinPanels
	}
	if opts.MaxPanels > 0 {
		cfg.MaxPanelsPerScene = opts.MaxPanels
	}
	if opts.Concurrency > 0 {
		cfg.AssetConcurrency = opts.Concurrency
	}
	if opts.RequestTimeout > 0 {
		cfg.RequestTimeout = opts.RequestTimeout
	}
	return cfg.Normalize()
}

func parseFloatEnv(key string, fallback float64) float64 {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("環境変数の値が不正なため、デフォルト値を使用します", slog.String("key", key), slog.String("value", raw))
		return fallback
	}
	return v
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なため、デフォルト値を使用します", slog.String("key", key), slog.String("value", raw))
		return fallback
	}
	return v
}
