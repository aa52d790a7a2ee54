package segmenter

import (
	"github.com/shouni/go-novel-comic-kit/pkg/config"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// sceneTypeMultipliers はシーン種別ごとのパネル数の倍率です。
var sceneTypeMultipliers = map[domain.SceneType]float64{
	domain.SceneEstablishing: 0.8,
	domain.SceneAction:       1.2,
	domain.SceneDialogue:     0.9,
	domain.SceneTransition:   0.6,
	domain.SceneClimax:       1.4,
}

// OptimizePanelCount はシーン種別に応じて推定パネル数を調整し、設定の最小・最大の範囲に収めます。
func OptimizePanelCount(scene domain.Scene, cfg config.Config) int {
	multiplier, ok := sceneTypeMultipliers[scene.SceneType]
	if !ok {
		multiplier = 1.0
	}
	n := int(float64(scene.EstimatedPanels) * multiplier)

	lo, hi := cfg.MinPanelsPerScene, cfg.MaxPanelsPerScene
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return min(max(n, lo), hi)
}
