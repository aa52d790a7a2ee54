package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel  = "gemini-3-flash-preview"
	DefaultImageModel   = "gemini-3-pro-image-preview"
	DefaultRateInterval = 10 * time.Second
	DefaultRateBurst    = 2 // DefaultRateInterval あたりに許可する連続呼び出し数
	DefaultOutputDir    = "comic_output"
	DefaultStyleSuffix  = "Modern manhwa/webtoon style, clean lines, vibrant colors, high resolution, detailed but not overly complex"

	// DefaultRedundancyThreshold を超えたパネルはカメラアングルとパネル種別が反転されます。
	DefaultRedundancyThreshold = 0.7
	// DefaultRedundancyWindow は冗長度スコアの比較対象となる直近パネル数です。
	DefaultRedundancyWindow = 3
	// DefaultLocationChangeThreshold はロケーション遷移パネルを提案する差分の閾値です。
	DefaultLocationChangeThreshold = 0.5

	DefaultMinPanelsPerScene = 1
	DefaultMaxPanelsPerScene = 6
	DefaultAssetConcurrency  = 4
	DefaultRequestTimeout    = 5 * time.Minute
	DefaultAspectRatio       = "16:9"
)

// Config はチャプター処理エンジン全体の基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string
	ImageModel   string

	// --- Generation Settings ---
	StyleSuffix  string
	AspectRatio  string
	RateInterval time.Duration

	// --- Panel Planning ---
	RedundancyThreshold     float64
	RedundancyWindow        int
	LocationChangeThreshold float64
	MinPanelsPerScene       int
	MaxPanelsPerScene       int

	// --- Storage & Execution ---
	OutputDir        string
	AssetConcurrency int
	RequestTimeout   time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:             DefaultGeminiModel,
		ImageModel:              DefaultImageModel,
		StyleSuffix:             DefaultStyleSuffix,
		AspectRatio:             DefaultAspectRatio,
		RateInterval:            DefaultRateInterval,
		RedundancyThreshold:     DefaultRedundancyThreshold,
		RedundancyWindow:        DefaultRedundancyWindow,
		LocationChangeThreshold: DefaultLocationChangeThreshold,
		MinPanelsPerScene:       DefaultMinPanelsPerScene,
		MaxPanelsPerScene:       DefaultMaxPanelsPerScene,
		OutputDir:               DefaultOutputDir,
		AssetConcurrency:        DefaultAssetConcurrency,
		RequestTimeout:          DefaultRequestTimeout,
	}
}

// Normalize はゼロ値や不正な値をデフォルトで補完した設定を返します。
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.GeminiModel == "" {
		c.GeminiModel = d.GeminiModel
	}
	if c.ImageModel == "" {
		c.ImageModel = d.ImageModel
	}
	if c.AspectRatio == "" {
		c.AspectRatio = d.AspectRatio
	}
	if c.RedundancyThreshold <= 0 || c.RedundancyThreshold > 1 {
		c.RedundancyThreshold = d.RedundancyThreshold
	}
	if c.RedundancyWindow <= 0 {
		c.RedundancyWindow = d.RedundancyWindow
	}
	if c.LocationChangeThreshold < 0 {
		c.LocationChangeThreshold = d.LocationChangeThreshold
	}
	if c.MinPanelsPerScene <= 0 {
		c.MinPanelsPerScene = d.MinPanelsPerScene
	}
	if c.MaxPanelsPerScene < c.MinPanelsPerScene {
		c.MaxPanelsPerScene = max(d.MaxPanelsPerScene, c.MinPanelsPerScene)
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.AssetConcurrency <= 0 {
		c.AssetConcurrency = d.AssetConcurrency
	}
	return c
}
