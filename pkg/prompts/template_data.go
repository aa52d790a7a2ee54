package prompts

import (
	_ "embed"

	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

const (
	ModeEntities  = "entities"
	ModeStructure = "structure"
	ModeScenes    = "scenes"
	ModePanels    = "panels"
)

// TemplateData は解析プロンプトのテンプレートに渡すデータ構造です。
// モードごとに参照されるフィールドは異なります。
type TemplateData struct {
	InputText string

	// ModeEntities / ModeScenes
	KnownCharacters []string
	KnownLocations  []string

	// ModeScenes
	TotalScenes   int
	SceneTypes    []string
	NarrativeFlow []string
	OptimalPanels []int

	// ModePanels
	Scene        domain.Scene
	TargetPanels int
}

var (
	//go:embed entities.md
	EntitiesPrompt string
	//go:embed structure.md
	StructurePrompt string
	//go:embed scenes.md
	ScenesPrompt string
	//go:embed panels.md
	PanelsPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeEntities:  EntitiesPrompt,
	ModeStructure: StructurePrompt,
	ModeScenes:    ScenesPrompt,
	ModePanels:    PanelsPrompt,
}
