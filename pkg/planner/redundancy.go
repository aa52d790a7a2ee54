package planner

import (
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// 冗長度スコアの重み
const (
	weightLocation   = 0.3
	weightCharacters = 0.3
	weightPanelType  = 0.2
	weightAngle      = 0.2

	// factorThreshold を超えた要素が冗長の要因として報告されます。
	factorThreshold = 0.7
)

const (
	FactorLocation    = "Location too similar to previous panels"
	FactorCharacters  = "Character composition too similar"
	FactorComposition = "Panel type and composition too similar"
)

// factorSuggestions は冗長要因ごとの改善案です。
var factorSuggestions = map[string][]string{
	FactorLocation: {
		"Change camera angle to show different perspective",
		"Focus on different location elements",
	},
	FactorCharacters: {
		"Change character positioning or interaction",
		"Use different panel type (close-up vs wide shot)",
	},
	FactorComposition: {
		"Use different camera angle",
		"Change panel type (action vs reaction)",
	},
}

// Redundancy は冗長度スコアとその内訳です。各要素は比較対象の中での最大値です。
type Redundancy struct {
	Score       float64  `json:"score"`
	Location    float64  `json:"location"`
	Characters  float64  `json:"characters"`
	Composition float64  `json:"composition"`
	Factors     []string `json:"factors,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ScoreRedundancy は panel と window の各パネルとの類似度を計算し、その最大値を返します。
// window が空なら 0 です。
func ScoreRedundancy(panel domain.Panel, window []domain.Panel) float64 {
	best := 0.0
	for _, prev := range window {
		best = max(best, pairScore(panel, prev))
	}
	return clamp01(best)
}

// AnalyzeRedundancy はスコアに加えて要素ごとの類似度、冗長要因、改善案を返します。
func AnalyzeRedundancy(panel domain.Panel, window []domain.Panel) Redundancy {
	r := Redundancy{Score: ScoreRedundancy(panel, window)}
	for _, prev := range window {
		r.Location = max(r.Location, locationSimilarity(panel, prev))
		r.Characters = max(r.Characters, jaccard(panel.Characters, prev.Characters))
		r.Composition = max(r.Composition, compositionSimilarity(panel, prev))
	}

	for _, f := range []struct {
		value  float64
		factor string
	}{
		{r.Location, FactorLocation},
		{r.Characters, FactorCharacters},
		{r.Composition, FactorComposition},
	} {
		if f.value > factorThreshold {
			r.Factors = append(r.Factors, f.factor)
			r.Suggestions = append(r.Suggestions, factorSuggestions[f.factor]...)
		}
	}
	return r
}

func pairScore(a, b domain.Panel) float64 {
	return weightLocation*locationSimilarity(a, b) +
		weightCharacters*jaccard(a.Characters, b.Characters) +
		weightPanelType*indicator(a.PanelType == b.PanelType) +
		weightAngle*indicator(a.CameraAngle == b.CameraAngle)
}

func locationSimilarity(a, b domain.Panel) float64 {
	return indicator(a.Location == b.Location)
}

// compositionSimilarity はパネル種別とカメラアングルの一致度（0, 0.5, 1）です。
func compositionSimilarity(a, b domain.Panel) float64 {
	return (indicator(a.PanelType == b.PanelType) + indicator(a.CameraAngle == b.CameraAngle)) / 2
}

// jaccard は2つの名前集合の Jaccard 係数です。両方が空の場合は 0 を返します。
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, n := range a {
		setA[n] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, n := range b {
		setB[n] = struct{}{}
	}

	union := len(setA)
	inter := 0
	for n := range setB {
		if _, ok := setA[n]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
