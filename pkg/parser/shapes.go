package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// CharacterSpec はエンティティ抽出結果に含まれるキャラクター1件です。
type CharacterSpec struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	VisualTraits string `json:"visual_traits"`
}

// LocationSpec はエンティティ抽出結果に含まれるロケーション1件です。
type LocationSpec struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ParentLocation string `json:"parent_location"`
	TransitionType string `json:"transition_type"`
}

// EntityResult はエンティティ抽出の応答構造です。
type EntityResult struct {
	Characters []CharacterSpec `json:"characters"`
	Locations  []LocationSpec  `json:"locations"`
}

// Validate はエンティティが1件以上あり、すべてに名前があることを検査します。
func (r *EntityResult) Validate() error {
	if len(r.Characters) == 0 && len(r.Locations) == 0 {
		return errors.New("characters と locations がどちらも空です")
	}
	for i, c := range r.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("characters[%d]: name が空です", i)
		}
	}
	for i, l := range r.Locations {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("locations[%d]: name が空です", i)
		}
	}
	return nil
}

// StructurePlan はチャプター構造分析の応答構造です。
type StructurePlan struct {
	TotalScenes           int      `json:"total_scenes"`
	SceneTypes            []string `json:"scene_types"`
	NarrativeFlow         []string `json:"narrative_flow"`
	OptimalPanelsPerScene []int    `json:"optimal_panels_per_scene"`
	SceneDescriptions     []string `json:"scene_descriptions,omitempty"`
	ContinuityNotes       []string `json:"continuity_notes,omitempty"`
}

// Validate はシーン数が正であることを検査します。
func (p *StructurePlan) Validate() error {
	if p.TotalScenes < 1 {
		return fmt.Errorf("total_scenes が不正です: %d", p.TotalScenes)
	}
	for i, n := range p.OptimalPanelsPerScene {
		if n < 0 {
			return fmt.Errorf("optimal_panels_per_scene[%d] が負の値です: %d", i, n)
		}
	}
	return nil
}

// PanelHint は i 番目（0始まり）のシーンに対する推奨パネル数を返します。ヒントがなければ 0 です。
func (p StructurePlan) PanelHint(i int) int {
	if i < 0 || i >= len(p.OptimalPanelsPerScene) {
		return 0
	}
	return p.OptimalPanelsPerScene[i]
}

// SceneSpec はシーン分割結果に含まれるシーン1件です。
type SceneSpec struct {
	Content          string   `json:"content"`
	Characters       []string `json:"characters"`
	Location         string   `json:"location"`
	SceneType        string   `json:"scene_type"`
	NarrativeFlow    string   `json:"narrative_flow"`
	EstimatedPanels  int      `json:"estimated_panels"`
	PreviousScene    *string  `json:"previous_scene"`
	NextScene        *string  `json:"next_scene"`
	EmotionalTone    string   `json:"emotional_tone,omitempty"`
	Pacing           string   `json:"pacing,omitempty"`
	VisualComplexity string   `json:"visual_complexity,omitempty"`
}

// SceneBreakdown はシーン分割の応答構造です。
type SceneBreakdown struct {
	Scenes []SceneSpec `json:"scenes"`
}

// Validate はシーンが1件以上あり、すべてにロケーションがあることを検査します。
func (b *SceneBreakdown) Validate() error {
	if len(b.Scenes) == 0 {
		return errors.New("scenes が空です")
	}
	for i, s := range b.Scenes {
		if strings.TrimSpace(s.Location) == "" {
			return fmt.Errorf("scenes[%d]: location が空です", i)
		}
	}
	return nil
}

// LinksWellFormed は応答の前後リンクが「先頭のみ previous なし、末尾のみ next なし」になっているかを返します。
func (b SceneBreakdown) LinksWellFormed() bool {
	last := len(b.Scenes) - 1
	for i, s := range b.Scenes {
		hasPrev := s.PreviousScene != nil && *s.PreviousScene != ""
		hasNext := s.NextScene != nil && *s.NextScene != ""
		if hasPrev != (i > 0) || hasNext != (i < last) {
			return false
		}
	}
	return true
}

// ToScenes はドメインのシーン列に変換します。ID と前後リンクは呼び出し側で振り直します。
func (b SceneBreakdown) ToScenes() domain.Scenes {
	scenes := make(domain.Scenes, 0, len(b.Scenes))
	for _, s := range b.Scenes {
		scenes = append(scenes, domain.Scene{
			Content:          s.Content,
			Characters:       append([]string(nil), s.Characters...),
			Location:         s.Location,
			SceneType:        domain.SceneType(s.SceneType),
			NarrativeFlow:    domain.NarrativeFlow(s.NarrativeFlow),
			EstimatedPanels:  s.EstimatedPanels,
			EmotionalTone:    s.EmotionalTone,
			Pacing:           s.Pacing,
			VisualComplexity: s.VisualComplexity,
		})
	}
	return scenes
}

// PanelSpec はパネル構成案1件です。
type PanelSpec struct {
	Description       string   `json:"description"`
	Characters        []string `json:"characters"`
	Location          string   `json:"location"`
	CompositionPrompt string   `json:"composition_prompt"`
	PanelType         string   `json:"panel_type"`
	CameraAngle       string   `json:"camera_angle"`
}

// PanelBreakdown はパネル構成案の応答構造です。
type PanelBreakdown struct {
	Panels []PanelSpec `json:"panels"`
}

// Validate はパネルが1件以上あり、すべてに説明があることを検査します。
func (b *PanelBreakdown) Validate() error {
	if len(b.Panels) == 0 {
		return errors.New("panels が空です")
	}
	for i, p := range b.Panels {
		if strings.TrimSpace(p.Description) == "" {
			return fmt.Errorf("panels[%d]: description が空です", i)
		}
	}
	return nil
}

// ToPanels はドメインのパネル列に変換します。
func (b PanelBreakdown) ToPanels() domain.Panels {
	panels := make(domain.Panels, 0, len(b.Panels))
	for _, p := range b.Panels {
		panels = append(panels, domain.Panel{
			Description:       p.Description,
			Characters:        append([]string(nil), p.Characters...),
			Location:          p.Location,
			CompositionPrompt: p.CompositionPrompt,
			PanelType:         domain.PanelType(strings.ToLower(strings.TrimSpace(p.PanelType))),
			CameraAngle:       domain.CameraAngle(strings.ToLower(strings.TrimSpace(p.CameraAngle))),
		})
	}
	return panels
}
