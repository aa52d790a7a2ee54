package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/config"
	"github.com/shouni/go-novel-comic-kit/pkg/continuity"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/planner"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
	"github.com/shouni/go-novel-comic-kit/pkg/registry"
	"github.com/shouni/go-novel-comic-kit/pkg/segmenter"
)

var tracer = otel.Tracer("github.com/shouni/go-novel-comic-kit/pkg/pipeline")

// 連続性の助言の種別です。
const (
	AdvisorySuggestion = "suggestion"
	AdvisoryViolation  = "violation"
)

// Advisory はシーンに対する連続性の助言です。処理を止めることはありません。
type Advisory struct {
	SceneID string `json:"scene_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result は1回の実行結果です。
type Result struct {
	RunID      string           `json:"run_id"`
	Paths      []string         `json:"paths"`
	Scenes     domain.Scenes    `json:"scenes"`
	Panels     domain.Panels    `json:"panels"`
	Advisories []Advisory       `json:"advisories"`
	Continuity continuity.State `json:"continuity"`
}

// Dependencies はパイプラインが利用するコラボレーターです。nil のフィールドはオフライン実装やデフォルトで補完されます。
type Dependencies struct {
	Analyzer       adapters.Analyzer
	Renderer       adapters.Renderer
	AnalysisPrompt prompts.AnalysisPrompt
	ImagePrompt    prompts.ImagePrompt
	Metrics        *Metrics
}

// Pipeline はチャプター本文からパネル画像列を生成する全工程をオーケストレートします。
type Pipeline struct {
	cfg         config.Config
	registry    *registry.Registry
	tracker     *continuity.Tracker
	segmenter   *segmenter.Segmenter
	planner     *planner.Planner
	renderer    adapters.Renderer
	imagePrompt prompts.ImagePrompt
	metrics     *Metrics
}

// New は設定とコラボレーターから Pipeline を組み立てます。
func New(cfg config.Config, deps Dependencies) *Pipeline {
	cfg = cfg.Normalize()
	if deps.Analyzer == nil {
		deps.Analyzer = adapters.Offline{}
	}
	if deps.Renderer == nil {
		deps.Renderer = adapters.Offline{}
	}
	if deps.AnalysisPrompt == nil {
		deps.AnalysisPrompt = prompts.MustTextPromptBuilder()
	}
	if deps.ImagePrompt == nil {
		deps.ImagePrompt = prompts.NewImagePromptBuilder(cfg.StyleSuffix)
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}

	reg := registry.New(cfg.OutputDir, cfg.AspectRatio, registry.Dependencies{
		Analyzer:       deps.Analyzer,
		Renderer:       deps.Renderer,
		AnalysisPrompt: deps.AnalysisPrompt,
		ImagePrompt:    deps.ImagePrompt,
		Observer:       deps.Metrics,
	})
	locationType := func(name string) domain.TransitionType {
		loc, ok := reg.Location(name)
		if !ok {
			return ""
		}
		return loc.TransitionType
	}

	return &Pipeline{
		cfg:      cfg,
		registry: reg,
		tracker:  continuity.NewTracker(cfg.LocationChangeThreshold, locationType),
		segmenter: segmenter.New(segmenter.Dependencies{
			Analyzer:       deps.Analyzer,
			AnalysisPrompt: deps.AnalysisPrompt,
			Entities:       reg,
			Observer:       deps.Metrics,
		}),
		planner: planner.New(cfg, planner.Dependencies{
			Analyzer:       deps.Analyzer,
			AnalysisPrompt: deps.AnalysisPrompt,
			Observer:       deps.Metrics,
		}),
		renderer:    deps.Renderer,
		imagePrompt: deps.ImagePrompt,
		metrics:     deps.Metrics,
	}
}

// Registry はパイプラインが所有するエンティティレジストリを返します。
func (p *Pipeline) Registry() *registry.Registry {
	return p.registry
}

// Config は正規化済みの設定を返します。
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// ProcessChapter はチャプター本文を処理し、シーン順・パネル順の画像パスを返します。
// 内容上の問題はすべてフォールバックで吸収され、エラーはパネルを1枚も生成する前に
// コンテキストがキャンセルされた場合などに限られます。
func (p *Pipeline) ProcessChapter(ctx context.Context, text string) ([]string, error) {
	res, err := p.Run(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.Paths, nil
}

// Run は ProcessChapter と同じ処理を行い、シーン・パネル・助言を含む実行結果を返します。
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("処理開始前にキャンセルされました: %w", err)
	}

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("chapter.length", len(text)),
	))
	defer span.End()

	logger := slog.Default().With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "チャプターの処理を開始します", slog.String("output_dir", p.cfg.OutputDir))

	// 1. 実行単位の状態を初期化
	p.tracker.Reset()
	p.planner.Reset()
	if err := asset.EnsureLayout(p.cfg.OutputDir); err != nil {
		return nil, err
	}
	if err := p.registry.Load(); err != nil {
		logger.WarnContext(ctx, "保存済みレジストリの読み込みに失敗しました", slog.Any("error", err))
	}

	// 2-3. エンティティ抽出とアセットの解決
	p.registry.ExtractEntities(ctx, text)
	p.ResolveAssets(ctx)

	// 4. 構造分析とシーン分割
	scenes := p.segmenter.SegmentChapter(ctx, text)
	logger.InfoContext(ctx, "シーン分割が完了しました", slog.Int("scenes", len(scenes)))

	res := &Result{RunID: runID, Scenes: scenes}

	// 5. シーンごとのパネル計画と描画
	panelIndex := 0
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			if len(res.Paths) == 0 {
				return nil, fmt.Errorf("パネル生成前にキャンセルされました: %w", err)
			}
			logger.WarnContext(ctx, "キャンセルされたため、残りのシーンを中断します",
				slog.String("scene_id", scene.ID),
				slog.Int("panels", len(res.Paths)),
			)
			break
		}

		res.Advisories = append(res.Advisories, p.adviseScene(ctx, logger, scene)...)
		p.tracker.RecordScene(scene)
		p.tracker.RecordMood(scene.EmotionalTone)
		p.tracker.RecordPacing(scene.Pacing)

		n := segmenter.OptimizePanelCount(scene, p.cfg)
		sceneCtx, sceneSpan := tracer.Start(ctx, "pipeline.Scene", trace.WithAttributes(
			attribute.String("scene.id", scene.ID),
			attribute.Int("scene.panels", n),
		))
		panels := p.planner.PlanPanels(sceneCtx, scene, n)
		for _, panel := range panels {
			p.metrics.RedundancyScores.Observe(panel.RedundancyScore)
			if panel.RedundancyScore > p.planner.Threshold() {
				p.metrics.RedundancyToggles.Inc()
			}

			panelIndex++
			path, err := p.renderPanel(sceneCtx, scene, panel, panelIndex)
			if err != nil {
				logger.ErrorContext(ctx, "パネル画像を書き出せませんでした",
					slog.Int("panel_index", panelIndex),
					slog.Any("error", err),
				)
			}
			res.Paths = append(res.Paths, path)
			res.Panels = append(res.Panels, panel)
		}
		sceneSpan.End()
		logger.InfoContext(ctx, "シーンの処理が完了しました",
			slog.String("scene_id", scene.ID),
			slog.Int("panels", len(panels)),
		)
	}

	// 6. レジストリの保存
	if err := p.registry.Persist(); err != nil {
		logger.WarnContext(ctx, "レジストリの保存に失敗しました", slog.Any("error", err))
	}
	res.Continuity = p.tracker.Snapshot()

	span.SetAttributes(attribute.Int("panels.count", len(res.Paths)))
	logger.InfoContext(ctx, "チャプターの処理が完了しました",
		slog.Int("scenes", len(scenes)),
		slog.Int("panels", len(res.Paths)),
		slog.Int("characters", len(res.Panels.UniqueCharacters())),
		slog.Int("advisories", len(res.Advisories)),
	)
	return res, nil
}

// adviseScene はシーンを記録する前に連続性の提案と違反を集めます。
func (p *Pipeline) adviseScene(ctx context.Context, logger *slog.Logger, scene domain.Scene) []Advisory {
	var advisories []Advisory
	for _, msg := range p.tracker.SuggestContinuityPanels(scene) {
		advisories = append(advisories, Advisory{SceneID: scene.ID, Kind: AdvisorySuggestion, Message: msg})
	}
	for _, msg := range p.tracker.CheckViolations(scene) {
		advisories = append(advisories, Advisory{SceneID: scene.ID, Kind: AdvisoryViolation, Message: msg})
	}
	for _, a := range advisories {
		p.metrics.Advisories.WithLabelValues(a.Kind).Inc()
		logger.InfoContext(ctx, "連続性の助言",
			slog.String("scene_id", a.SceneID),
			slog.String("kind", a.Kind),
			slog.String("message", a.Message),
		)
	}
	return advisories
}
