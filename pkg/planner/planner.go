package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/config"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/parser"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

const (
	// DefaultComposition は構図の指定がないパネルに使われます。
	DefaultComposition = "Medium shot, balanced composition"

	sceneExcerptLimit = 50
)

// Dependencies は Planner が利用するコラボレーターです。
type Dependencies struct {
	Analyzer       adapters.Analyzer
	AnalysisPrompt prompts.AnalysisPrompt
	Observer       adapters.Observer
}

// Planner はシーンごとのパネル構成を計画し、直近の履歴と似すぎたパネルを抑制します。
// 計画は逐次的に行われ、履歴はシーンをまたいで引き継がれます。
type Planner struct {
	analyzer  adapters.Analyzer
	prompt    prompts.AnalysisPrompt
	observer  adapters.Observer
	threshold float64
	window    int

	mu      sync.Mutex
	history domain.Panels
}

// New は新しい Planner を生成します。
func New(cfg config.Config, deps Dependencies) *Planner {
	cfg = cfg.Normalize()
	if deps.Analyzer == nil {
		deps.Analyzer = adapters.Offline{}
	}
	if deps.AnalysisPrompt == nil {
		deps.AnalysisPrompt = prompts.MustTextPromptBuilder()
	}
	if deps.Observer == nil {
		deps.Observer = adapters.NopObserver{}
	}
	return &Planner{
		analyzer:  deps.Analyzer,
		prompt:    deps.AnalysisPrompt,
		observer:  deps.Observer,
		threshold: cfg.RedundancyThreshold,
		window:    cfg.RedundancyWindow,
	}
}

// Threshold は冗長と判定するスコアの閾値を返します。
func (p *Planner) Threshold() float64 {
	return p.threshold
}

// PlanPanels はシーンに対してちょうど n 枚のパネルを返します。n が1未満の場合は1として扱います。
// 直近の履歴に対する冗長度が閾値を超えたパネルは、アングルと種別が一度だけ反転されます。
// パネルに記録されるスコアは反転前のものです。
func (p *Planner) PlanPanels(ctx context.Context, scene domain.Scene, n int) domain.Panels {
	n = max(n, 1)

	concepts, err := p.requestConcepts(ctx, scene, n)
	if err != nil {
		slog.WarnContext(ctx, "パネル構成案の取得に失敗したため、フォールバックを使用します",
			slog.String("scene_id", scene.ID),
			slog.Any("error", err),
		)
		p.observer.Fallback(ctx, adapters.StagePanels, err)
		concepts = FallbackConcepts(scene)
	}
	panels := normalize(concepts, scene, n)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range panels {
		panel := &panels[i]
		r := AnalyzeRedundancy(*panel, p.recent())
		panel.RedundancyScore = r.Score
		if r.Score > p.threshold {
			slog.DebugContext(ctx, "冗長なパネルのアングルと種別を反転します",
				slog.String("scene_id", scene.ID),
				slog.Int("panel", i+1),
				slog.Float64("score", r.Score),
				slog.Any("factors", r.Factors),
				slog.Any("suggestions", r.Suggestions),
			)
			panel.RedundancyFactors = r.Factors
			panel.Toggle()
		}
		p.history = append(p.history, panel.Clone())
	}
	return panels
}

// recent は比較対象となる直近の履歴を返します。呼び出し側でロックを保持している必要があります。
func (p *Planner) recent() domain.Panels {
	if len(p.history) <= p.window {
		return p.history
	}
	return p.history[len(p.history)-p.window:]
}

// History は計画済みパネルの履歴のコピーを返します。
func (p *Planner) History() domain.Panels {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(domain.Panels, len(p.history))
	for i, panel := range p.history {
		out[i] = panel.Clone()
	}
	return out
}

// Reset は履歴を消去します。
func (p *Planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
}

func (p *Planner) requestConcepts(ctx context.Context, scene domain.Scene, n int) (domain.Panels, error) {
	prompt, err := p.prompt.Build(prompts.ModePanels, prompts.TemplateData{Scene: scene, TargetPanels: n})
	if err != nil {
		return nil, err
	}
	raw, err := p.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var breakdown parser.PanelBreakdown
	if err := parser.Decode(raw, &breakdown); err != nil {
		return nil, err
	}
	if len(breakdown.Panels) != n {
		slog.DebugContext(ctx, "パネル数を調整します",
			slog.String("scene_id", scene.ID),
			slog.Int("requested", n),
			slog.Int("received", len(breakdown.Panels)),
		)
	}
	return breakdown.ToPanels(), nil
}

// FallbackConcepts は構成案が得られない場合の2枚のパネルを返します。
func FallbackConcepts(scene domain.Scene) domain.Panels {
	return domain.Panels{
		{
			Description:       fmt.Sprintf("Scene: %s...", excerpt(scene.Content, sceneExcerptLimit)),
			Characters:        append([]string(nil), scene.Characters...),
			Location:          scene.Location,
			CompositionPrompt: "Wide establishing shot",
			PanelType:         domain.PanelEstablishing,
			CameraAngle:       domain.AngleWide,
		},
		{
			Description:       fmt.Sprintf("Close-up of characters in %s", scene.Location),
			Characters:        append([]string(nil), scene.Characters...),
			Location:          scene.Location,
			CompositionPrompt: "Medium close-up shot",
			PanelType:         domain.PanelAction,
			CameraAngle:       domain.AngleMedium,
		},
	}
}

// normalize はパネル数を n に揃え、シーンの情報と整合させます。
func normalize(concepts domain.Panels, scene domain.Scene, n int) domain.Panels {
	if len(concepts) > n {
		concepts = concepts[:n]
	}
	fallback := FallbackConcepts(scene)
	for i := 0; len(concepts) < n; i++ {
		concepts = append(concepts, fallback[i%len(fallback)].Clone())
	}

	panels := make(domain.Panels, n)
	for i, c := range concepts {
		c = c.Clone()
		c.SceneID = scene.ID
		c.Location = scene.Location
		c.Characters = filterCharacters(c.Characters, scene)
		if strings.TrimSpace(c.CompositionPrompt) == "" {
			c.CompositionPrompt = DefaultComposition
		}
		if c.PanelType == "" {
			c.PanelType = domain.PanelAction
		}
		if c.CameraAngle == "" {
			c.CameraAngle = domain.AngleMedium
		}
		c.RedundancyScore = 0
		c.Toggled = false
		c.RedundancyFactors = nil
		panels[i] = c
	}
	return panels
}

// filterCharacters はシーンに登場するキャラクターだけを残します。1人も残らなければシーンの全キャラクターを使います。
func filterCharacters(names []string, scene domain.Scene) []string {
	var kept []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup || !scene.HasCharacter(name) {
			continue
		}
		seen[name] = struct{}{}
		kept = append(kept, name)
	}
	if len(kept) == 0 {
		return append([]string(nil), scene.Characters...)
	}
	return kept
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
