package domain

import "fmt"

// SceneType はシーンの演出上の種別です。列挙外の値もそのまま保持します。
type SceneType string

const (
	SceneEstablishing SceneType = "establishing"
	SceneAction       SceneType = "action"
	SceneDialogue     SceneType = "dialogue"
	SceneTransition   SceneType = "transition"
	SceneClimax       SceneType = "climax"
	SceneResolution   SceneType = "resolution"
)

// NarrativeFlow は物語上の展開段階です。
type NarrativeFlow string

const (
	FlowSetup         NarrativeFlow = "setup"
	FlowConflict      NarrativeFlow = "conflict"
	FlowRisingAction  NarrativeFlow = "rising_action"
	FlowClimax        NarrativeFlow = "climax"
	FlowFallingAction NarrativeFlow = "falling_action"
	FlowResolution    NarrativeFlow = "resolution"
	FlowTransition    NarrativeFlow = "transition"
)

// Scene は1つの物語上のビートを表します。
// Characters と Location はレジストリのキー（名前）への参照です。
type Scene struct {
	ID               string        `json:"id"`
	Content          string        `json:"content"`
	Characters       []string      `json:"characters"`
	Location         string        `json:"location"`
	SceneType        SceneType     `json:"scene_type"`
	NarrativeFlow    NarrativeFlow `json:"narrative_flow"`
	EstimatedPanels  int           `json:"estimated_panels"`
	PreviousScene    string        `json:"previous_scene,omitempty"` // 空文字は先頭
	NextScene        string        `json:"next_scene,omitempty"`     // 空文字は末尾
	EmotionalTone    string        `json:"emotional_tone,omitempty"`
	Pacing           string        `json:"pacing,omitempty"`
	VisualComplexity string        `json:"visual_complexity,omitempty"`
}

// Scenes はシーンの順序付きリストです。
type Scenes []Scene

// SceneID は1始まりの通し番号からシーンIDを生成します。
func SceneID(index int) string {
	return fmt.Sprintf("scene_%d", index)
}

// LinkChain はリストの順序だけを根拠に ID と前後リンクを振り直します。
func (ss Scenes) LinkChain() {
	for i := range ss {
		ss[i].ID = SceneID(i + 1)
	}
	for i := range ss {
		ss[i].PreviousScene = ""
		ss[i].NextScene = ""
		if i > 0 {
			ss[i].PreviousScene = ss[i-1].ID
		}
		if i < len(ss)-1 {
			ss[i].NextScene = ss[i+1].ID
		}
	}
}

// ChainValid は前後リンクがリスト順と一致し、先頭と末尾がそれぞれ1つだけであるかを判定します。
func (ss Scenes) ChainValid() bool {
	if len(ss) == 0 {
		return false
	}
	heads, tails := 0, 0
	for i, s := range ss {
		if s.PreviousScene == "" {
			heads++
		} else if i == 0 || s.PreviousScene != ss[i-1].ID {
			return false
		}
		if s.NextScene == "" {
			tails++
		} else if i == len(ss)-1 || s.NextScene != ss[i+1].ID {
			return false
		}
	}
	return heads == 1 && tails == 1
}

// HasCharacter はシーンに指定キャラクターが登場するかを返します。
func (s Scene) HasCharacter(name string) bool {
	for _, c := range s.Characters {
		if c == name {
			return true
		}
	}
	return false
}
