package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "jsonコードフェンスを除去する",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "言語指定なしのフェンスも除去する",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "前後の説明文から最も外側のオブジェクトを抜き出す",
			in:   "Here you go:\n{\"a\": {\"b\": 2}}\nThanks!",
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "閉じ括弧直前の末尾カンマを取り除く",
			in:   `{"a": [1, 2, ], "b": 3, }`,
			want: `{"a": [1, 2 ], "b": 3 }`,
		},
		{
			name: "JSONを含まない応答はそのまま返す",
			in:   "  no json here  ",
			want: "no json here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONResponse(tt.in))
		})
	}
}

func TestDecode_EntityResult(t *testing.T) {
	t.Run("フェンス付きの正常な応答をデコードできること", func(t *testing.T) {
		raw := "```json\n" + `{
			"characters": [{"name": "Luna", "description": "mage", "visual_traits": "silver hair"},],
			"locations": [{"name": "Forest", "description": "dark", "parent_location": null, "transition_type": "exterior"}]
		}` + "\n```"

		var res EntityResult
		require.NoError(t, Decode(raw, &res))
		require.Len(t, res.Characters, 1)
		assert.Equal(t, "Luna", res.Characters[0].Name)
		assert.Equal(t, "exterior", res.Locations[0].TransitionType)
		assert.Empty(t, res.Locations[0].ParentLocation)
	})

	t.Run("名前が空のキャラクターは構造エラーになること", func(t *testing.T) {
		var res EntityResult
		err := Decode(`{"characters": [{"name": " "}], "locations": []}`, &res)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("空の結果は構造エラーになること", func(t *testing.T) {
		var res EntityResult
		err := Decode(`{"characters": [], "locations": []}`, &res)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("JSONを含まない応答は ErrNoJSON になること", func(t *testing.T) {
		var res EntityResult
		err := Decode("I cannot help with that.", &res)
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("壊れたJSONはデコードエラーになること", func(t *testing.T) {
		var res EntityResult
		err := Decode(`{"characters": [{"name": "Luna"`, &res)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidShape)
	})
}

func TestDecode_StructurePlan(t *testing.T) {
	var plan StructurePlan
	require.NoError(t, Decode(`{"total_scenes": 3, "scene_types": ["establishing","action","resolution"], "narrative_flow": ["setup","conflict","resolution"], "optimal_panels_per_scene": [2,3,2]}`, &plan))
	assert.Equal(t, 3, plan.TotalScenes)
	assert.Equal(t, 3, plan.PanelHint(1))
	assert.Equal(t, 0, plan.PanelHint(5))

	var bad StructurePlan
	assert.ErrorIs(t, Decode(`{"total_scenes": 0}`, &bad), ErrInvalidShape)
}

func TestSceneBreakdown(t *testing.T) {
	raw := `{"scenes": [
		{"content": "a", "characters": ["Luna"], "location": "Forest", "scene_type": "establishing", "narrative_flow": "setup", "estimated_panels": 2, "previous_scene": null, "next_scene": "Scene 2"},
		{"content": "b", "characters": ["Luna"], "location": "Cave", "scene_type": "action", "narrative_flow": "conflict", "estimated_panels": 3, "previous_scene": "Scene 1", "next_scene": null}
	]}`

	t.Run("正しくリンクされた応答を判定できること", func(t *testing.T) {
		var b SceneBreakdown
		require.NoError(t, Decode(raw, &b))
		assert.True(t, b.LinksWellFormed())

		scenes := b.ToScenes()
		require.Len(t, scenes, 2)
		assert.Equal(t, "Cave", scenes[1].Location)
		assert.Equal(t, 3, scenes[1].EstimatedPanels)
	})

	t.Run("リンク欠落を検出できること", func(t *testing.T) {
		var b SceneBreakdown
		require.NoError(t, Decode(strings.Replace(raw, `"next_scene": "Scene 2"`, `"next_scene": null`, 1), &b))
		assert.False(t, b.LinksWellFormed())
	})

	t.Run("ロケーションのないシーンは構造エラーになること", func(t *testing.T) {
		var b SceneBreakdown
		err := Decode(`{"scenes": [{"content": "x", "location": ""}]}`, &b)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
}

func TestPanelBreakdown(t *testing.T) {
	var b PanelBreakdown
	require.NoError(t, Decode(`{"panels": [{"description": "Luna looks up", "characters": ["Luna"], "location": "Forest", "composition_prompt": "low angle", "panel_type": "Establishing", "camera_angle": "WIDE"}]}`, &b))

	panels := b.ToPanels()
	require.Len(t, panels, 1)
	assert.EqualValues(t, "establishing", panels[0].PanelType)
	assert.EqualValues(t, "wide", panels[0].CameraAngle)

	var empty PanelBreakdown
	assert.ErrorIs(t, Decode(`{"panels": []}`, &empty), ErrInvalidShape)
}
