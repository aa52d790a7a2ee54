package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	b, err := NewTextPromptBuilder()
	require.NoError(t, err)

	t.Run("エンティティ抽出プロンプトに本文と既知キャラクターが埋め込まれること", func(t *testing.T) {
		out, err := b.Build(ModeEntities, TemplateData{InputText: "Luna walked.", KnownCharacters: []string{"Luna", "Orion"}})
		require.NoError(t, err)
		assert.Contains(t, out, "Luna walked.")
		assert.Contains(t, out, "Luna, Orion")
		assert.Contains(t, out, `"visual_traits"`)
	})

	t.Run("シーン分割プロンプトに構造分析が反映されること", func(t *testing.T) {
		out, err := b.Build(ModeScenes, TemplateData{
			InputText:     "text",
			TotalScenes:   3,
			SceneTypes:    []string{"establishing", "action", "resolution"},
			NarrativeFlow: []string{"setup", "conflict", "resolution"},
			OptimalPanels: []int{2, 3, 2},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "into 3 distinct scenes")
		assert.Contains(t, out, "Optimal Panels: 2, 3, 2")
	})

	t.Run("パネルプロンプトに目標数とシーン情報が含まれること", func(t *testing.T) {
		out, err := b.Build(ModePanels, TemplateData{
			Scene:        domain.Scene{Content: "They fight", Characters: []string{"A", "B"}, Location: "Forest", SceneType: domain.SceneAction},
			TargetPanels: 4,
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Create 4 comic panels")
		assert.Contains(t, out, "Characters: A, B")
		assert.Contains(t, out, `"location": "Forest"`)
	})

	t.Run("未知のモードはエラーになること", func(t *testing.T) {
		_, err := b.Build("unknown", TemplateData{})
		assert.Error(t, err)
	})
}

func TestSanitizeLocationPrompt(t *testing.T) {
	t.Run("人物を示す語が置換され指示が追加されること", func(t *testing.T) {
		out := SanitizeLocationPrompt("A market with a crowd of people")
		assert.NotContains(t, out, "crowd")
		assert.NotContains(t, out, "people")
		assert.True(t, strings.HasSuffix(out, NoCharactersDirective))
	})

	t.Run("既に指示がある場合は重複して追加しないこと", func(t *testing.T) {
		out := SanitizeLocationPrompt("An empty hall. NO people allowed.")
		assert.NotContains(t, out, NoCharactersDirective)
	})
}

func TestImagePromptBuilder(t *testing.T) {
	pb := NewImagePromptBuilder("")

	t.Run("背景プロンプトは人物を含まない指示で終わること", func(t *testing.T) {
		prompt, neg := pb.BuildLocation(domain.Location{Name: "Forest", Description: "dense woods"})
		assert.Contains(t, prompt, "Location: Forest")
		assert.Contains(t, prompt, "Type: interior")
		assert.True(t, strings.HasSuffix(prompt, NoCharactersDirective))
		assert.Contains(t, neg, "silhouette")
	})

	t.Run("パネルプロンプトに参照アセットが列挙されること", func(t *testing.T) {
		loc := &domain.Location{Name: "Forest"}
		prompt, _ := pb.BuildPanel(
			domain.Panel{Description: "Luna draws her wand", Characters: []string{"Luna"}, Location: "Forest", PanelType: domain.PanelAction, CameraAngle: domain.AngleClose},
			[]domain.Character{{Name: "Luna", VisualTraits: "silver hair"}},
			loc,
		)
		assert.Contains(t, prompt, "Panel Type: action")
		assert.Contains(t, prompt, "Character Luna (use consistent appearance): {silver hair}")
		assert.Contains(t, prompt, "Location: Forest (use consistent appearance)")
	})

	t.Run("反転されたパネルは反転後のアングルで構図を指示すること", func(t *testing.T) {
		panel := domain.Panel{
			Description:       "Luna looks at the forest",
			Location:          "Forest",
			CompositionPrompt: "Wide establishing shot",
			PanelType:         domain.PanelEstablishing,
			CameraAngle:       domain.AngleWide,
		}
		prompt, _ := pb.BuildPanel(panel, nil, nil)
		assert.Contains(t, prompt, "Composition: Wide establishing shot")

		panel.Toggle()
		prompt, _ = pb.BuildPanel(panel, nil, nil)
		assert.NotContains(t, prompt, "Wide establishing shot")
		assert.Contains(t, prompt, "Composition: Close-up shot for the action beat")
		assert.Contains(t, prompt, "Camera Angle: close")
	})

	t.Run("スタイル指定が反映されること", func(t *testing.T) {
		prompt, _ := NewImagePromptBuilder("watercolor").BuildCharacter(domain.Character{Name: "Luna"})
		assert.Contains(t, prompt, "Style: watercolor")
	})
}
