package segmenter

import (
	"context"
	"log/slog"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/parser"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

const (
	// DefaultEstimatedPanels は推定パネル数もヒントもない場合のパネル数です。
	DefaultEstimatedPanels = 2

	// FallbackSceneContent は解析に失敗した場合のシーン本文です。
	FallbackSceneContent = "Scene parsing failed, using fallback"
)

// FallbackPlan は構造分析に失敗した場合の構成案を返します。
func FallbackPlan() parser.StructurePlan {
	return parser.StructurePlan{
		TotalScenes:           3,
		SceneTypes:            []string{string(domain.SceneEstablishing), string(domain.SceneAction), string(domain.SceneResolution)},
		NarrativeFlow:         []string{string(domain.FlowSetup), string(domain.FlowConflict), string(domain.FlowResolution)},
		OptimalPanelsPerScene: []int{2, 3, 2},
	}
}

// FallbackScenes はシーン分割に失敗した場合の単一シーンを返します。
func FallbackScenes() domain.Scenes {
	scenes := domain.Scenes{{
		Content:         FallbackSceneContent,
		Characters:      []string{domain.FallbackCharacterName},
		Location:        domain.FallbackLocationName,
		SceneType:       domain.SceneEstablishing,
		NarrativeFlow:   domain.FlowSetup,
		EstimatedPanels: DefaultEstimatedPanels,
	}}
	scenes.LinkChain()
	return scenes
}

// EntityNames は登録済みエンティティの名前を提供します。プロンプトで既知の名前を再利用させるために使います。
type EntityNames interface {
	CharacterNames() []string
	LocationNames() []string
}

// Dependencies は Segmenter が利用するコラボレーターです。
type Dependencies struct {
	Analyzer       adapters.Analyzer
	AnalysisPrompt prompts.AnalysisPrompt
	Entities       EntityNames
	Observer       adapters.Observer
}

// Segmenter はチャプターを連続性リンク付きのシーン列に分割します。
type Segmenter struct {
	analyzer adapters.Analyzer
	prompt   prompts.AnalysisPrompt
	entities EntityNames
	observer adapters.Observer
}

// New は新しい Segmenter を生成します。
func New(deps Dependencies) *Segmenter {
	if deps.Analyzer == nil {
		deps.Analyzer = adapters.Offline{}
	}
	if deps.AnalysisPrompt == nil {
		deps.AnalysisPrompt = prompts.MustTextPromptBuilder()
	}
	if deps.Observer == nil {
		deps.Observer = adapters.NopObserver{}
	}
	return &Segmenter{
		analyzer: deps.Analyzer,
		prompt:   deps.AnalysisPrompt,
		entities: deps.Entities,
		observer: deps.Observer,
	}
}

// AnalyzeStructure はチャプターの物語構造を分析します。失敗時はフォールバックの構成案を返します。
func (s *Segmenter) AnalyzeStructure(ctx context.Context, chapter string) parser.StructurePlan {
	var plan parser.StructurePlan
	err := s.request(ctx, prompts.ModeStructure, prompts.TemplateData{InputText: chapter}, &plan)
	if err != nil {
		slog.WarnContext(ctx, "構造分析に失敗したため、フォールバックの構成案を使用します", slog.Any("error", err))
		s.observer.Fallback(ctx, adapters.StageStructure, err)
		return FallbackPlan()
	}
	slog.InfoContext(ctx, "構造分析が完了しました",
		slog.Int("total_scenes", plan.TotalScenes),
		slog.Any("scene_types", plan.SceneTypes),
	)
	return plan
}

// Segment は構成案に基づいてチャプターをシーンに分割します。
// ID は常にリスト順で scene_1..N が振られ、前後リンクもリスト順から再構築されます。
func (s *Segmenter) Segment(ctx context.Context, chapter string, plan parser.StructurePlan) domain.Scenes {
	data := prompts.TemplateData{
		InputText:     chapter,
		TotalScenes:   plan.TotalScenes,
		SceneTypes:    plan.SceneTypes,
		NarrativeFlow: plan.NarrativeFlow,
		OptimalPanels: plan.OptimalPanelsPerScene,
	}
	if s.entities != nil {
		data.KnownCharacters = s.entities.CharacterNames()
		data.KnownLocations = s.entities.LocationNames()
	}

	var breakdown parser.SceneBreakdown
	if err := s.request(ctx, prompts.ModeScenes, data, &breakdown); err != nil {
		slog.WarnContext(ctx, "シーン分割に失敗したため、フォールバックのシーンを使用します", slog.Any("error", err))
		s.observer.Fallback(ctx, adapters.StageScenes, err)
		return FallbackScenes()
	}

	if len(breakdown.Scenes) != plan.TotalScenes {
		slog.WarnContext(ctx, "シーン数が構成案と一致しません",
			slog.Int("expected", plan.TotalScenes),
			slog.Int("actual", len(breakdown.Scenes)),
		)
	}
	if !breakdown.LinksWellFormed() {
		slog.WarnContext(ctx, "シーンの前後リンクが不正なため、リスト順で修復します", slog.Int("scenes", len(breakdown.Scenes)))
	}

	scenes := breakdown.ToScenes()
	for i := range scenes {
		sc := &scenes[i]
		if sc.EstimatedPanels <= 0 {
			sc.EstimatedPanels = plan.PanelHint(i)
			if sc.EstimatedPanels <= 0 {
				sc.EstimatedPanels = DefaultEstimatedPanels
			}
		}
		if sc.SceneType == "" && i < len(plan.SceneTypes) {
			sc.SceneType = domain.SceneType(plan.SceneTypes[i])
		}
		if sc.NarrativeFlow == "" && i < len(plan.NarrativeFlow) {
			sc.NarrativeFlow = domain.NarrativeFlow(plan.NarrativeFlow[i])
		}
	}
	scenes.LinkChain()
	return scenes
}

// SegmentChapter は構造分析とシーン分割を続けて実行します。
func (s *Segmenter) SegmentChapter(ctx context.Context, chapter string) domain.Scenes {
	plan := s.AnalyzeStructure(ctx, chapter)
	scenes := s.Segment(ctx, chapter, plan)
	slog.DebugContext(ctx, "シーン分割の結果",
		slog.Int("scenes", len(scenes)),
		slog.Bool("chain_valid", scenes.ChainValid()),
	)
	return scenes
}

func (s *Segmenter) request(ctx context.Context, mode string, data prompts.TemplateData, shape parser.Shape) error {
	prompt, err := s.prompt.Build(mode, data)
	if err != nil {
		return err
	}
	raw, err := s.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return err
	}
	return parser.Decode(raw, shape)
}
