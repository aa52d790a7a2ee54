package continuity

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

const (
	// NeutralMood はムード遷移の初期値です。
	NeutralMood = "neutral"
	// SceneChange は区分が不明なロケーション間の遷移ラベルです。
	SceneChange = "scene_change"

	pacingSlow        = "slow"
	pacingFast        = "fast"
	complexityComplex = "complex"
)

// 論理的に不自然とみなすロケーション遷移の組み合わせです（大文字小文字を区別しない部分一致）。
var illogicalTransitions = [][2]string{
	{"interior", "exterior"},
	{"day", "night"},
	{"city", "forest"},
}

// LocationTransition はロケーション間の遷移の記録です。
type LocationTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// MoodTransition はムードの遷移の記録です。
type MoodTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State は Tracker が保持する状態のスナップショットです。
type State struct {
	CurrentScene        string               `json:"current_scene"`
	PreviousScene       string               `json:"previous_scene"`
	SceneSequence       []string             `json:"scene_sequence"`
	LocationTransitions []LocationTransition `json:"location_transitions"`
	CharacterArcs       map[string][]string  `json:"character_arcs"`
	MoodTransitions     []MoodTransition     `json:"mood_transitions"`
	LastLocation        string               `json:"last_location"`
	LastMood            string               `json:"last_mood"`
	LastPacing          string               `json:"last_pacing"`
}

// LocationTypeFunc はロケーション名から屋内外区分を引く関数です。不明な場合は空文字を返します。
type LocationTypeFunc func(name string) domain.TransitionType

// Tracker はシーンをまたいだ連続性を追跡し、助言を生成します。
// 助言はすべて参考情報であり、処理を止めることはありません。
type Tracker struct {
	mu                      sync.Mutex
	state                   State
	moodRecorded            bool
	locationChangeThreshold float64
	locationType            LocationTypeFunc
}

// NewTracker は新しい Tracker を生成します。locationType が nil の場合、遷移はすべて scene_change になります。
func NewTracker(locationChangeThreshold float64, locationType LocationTypeFunc) *Tracker {
	if locationType == nil {
		locationType = func(string) domain.TransitionType { return "" }
	}
	t := &Tracker{
		locationChangeThreshold: locationChangeThreshold,
		locationType:            locationType,
	}
	t.reset()
	return t
}

// Reset は新しい実行のために状態を初期化します。
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *Tracker) reset() {
	t.state = State{
		CharacterArcs: make(map[string][]string),
		LastMood:      NeutralMood,
	}
	t.moodRecorded = false
}

// RecordScene はシーンを記録し、シーンポインタ、キャラクターの登場履歴、ロケーション遷移を更新します。
func (t *Tracker) RecordScene(scene domain.Scene) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.state
	hadScene := s.CurrentScene != ""
	s.PreviousScene = s.CurrentScene
	s.CurrentScene = scene.ID
	s.SceneSequence = append(s.SceneSequence, scene.ID)

	for _, name := range scene.Characters {
		s.CharacterArcs[name] = append(s.CharacterArcs[name], scene.ID)
	}

	if scene.Location == "" {
		return
	}
	if hadScene && s.LastLocation != "" && scene.Location != s.LastLocation {
		s.LocationTransitions = append(s.LocationTransitions, LocationTransition{
			From: s.LastLocation,
			To:   scene.Location,
			Type: t.transitionType(s.LastLocation, scene.Location),
		})
	}
	s.LastLocation = scene.Location
}

// transitionType は両端の区分が判明していれば interior_to_exterior 形式、そうでなければ scene_change を返します。
func (t *Tracker) transitionType(from, to string) string {
	fromType, toType := t.locationType(from), t.locationType(to)
	if fromType == "" || toType == "" {
		return SceneChange
	}
	return fmt.Sprintf("%s_to_%s", fromType, toType)
}

// RecordMood はムードを記録します。直前のムードと異なる場合のみ遷移を追加し、空のトーンは無視します。
func (t *Tracker) RecordMood(tone string) {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if tone != t.state.LastMood {
		t.state.MoodTransitions = append(t.state.MoodTransitions, MoodTransition{From: t.state.LastMood, To: tone})
		t.state.LastMood = tone
	}
	t.moodRecorded = true
}

// RecordPacing は直近のペースを記録します。
func (t *Tracker) RecordPacing(pacing string) {
	pacing = strings.TrimSpace(pacing)
	if pacing == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastPacing = pacing
}

// CheckLocationTransition はロケーション遷移が論理的かを判定します。
// どちらかが空なら true、既知の不自然な組み合わせなら false を返します。
func CheckLocationTransition(from, to string) bool {
	if from == "" || to == "" {
		return true
	}
	from, to = strings.ToLower(from), strings.ToLower(to)
	for _, pair := range illogicalTransitions {
		if strings.Contains(from, pair[0]) && strings.Contains(to, pair[1]) {
			return false
		}
	}
	return true
}

// CheckViolations は直前に記録されたシーンと比較して連続性の違反を返します。
// ロケーションは名前の組み合わせに加えて、登録済みの屋内外区分でも判定します。
func (t *Tracker) CheckViolations(scene domain.Scene) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	if s.CurrentScene == "" {
		return nil
	}

	var violations []string
	if scene.Location != s.LastLocation && (!CheckLocationTransition(s.LastLocation, scene.Location) || t.isInteriorToExterior(s.LastLocation, scene.Location)) {
		violations = append(violations, fmt.Sprintf("Unexpected location change from %s to %s", s.LastLocation, scene.Location))
	}
	if strings.EqualFold(scene.Pacing, pacingFast) && strings.EqualFold(s.LastPacing, pacingSlow) {
		violations = append(violations, "Sudden pacing change might need transition panel")
	}
	return violations
}

// isInteriorToExterior は登録済みの区分で屋内から屋外への移動かを判定します。
func (t *Tracker) isInteriorToExterior(from, to string) bool {
	return t.locationType(from) == domain.TransitionInterior && t.locationType(to) == domain.TransitionExterior
}

// SuggestContinuityPanels は連続性のために追加を検討すべきパネルを返します。
// 対象シーンを RecordScene する前に呼び出します。
func (t *Tracker) SuggestContinuityPanels(scene domain.Scene) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	var suggestions []string
	if s.CurrentScene != "" && locationDelta(s.LastLocation, scene.Location) > t.locationChangeThreshold {
		suggestions = append(suggestions, "Consider adding location transition panel")
	}
	if strings.EqualFold(scene.VisualComplexity, complexityComplex) {
		suggestions = append(suggestions, "Consider adding character re-establishment panel")
	}
	if tone := strings.TrimSpace(scene.EmotionalTone); t.moodRecorded && tone != "" && tone != s.LastMood {
		suggestions = append(suggestions, fmt.Sprintf("Consider mood transition panel from %s to %s", s.LastMood, tone))
	}
	return suggestions
}

// locationDelta は異なるロケーションなら 1、同じなら 0 を返します。
func locationDelta(from, to string) float64 {
	if from == to {
		return 0
	}
	return 1
}

// Snapshot は現在の状態のコピーを返します。
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	s.SceneSequence = append([]string(nil), s.SceneSequence...)
	s.LocationTransitions = append([]LocationTransition(nil), s.LocationTransitions...)
	s.MoodTransitions = append([]MoodTransition(nil), s.MoodTransitions...)
	arcs := make(map[string][]string, len(s.CharacterArcs))
	for name, ids := range s.CharacterArcs {
		arcs[name] = append([]string(nil), ids...)
	}
	s.CharacterArcs = arcs
	return s
}
