package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// renderPanel はパネルの参照アセットを解決して画像を生成し、panels/panel_N.png に保存します。
// 生成に失敗した場合はプレースホルダーを書き出します。
func (p *Pipeline) renderPanel(ctx context.Context, scene domain.Scene, panel domain.Panel, index int) (string, error) {
	path, err := asset.PanelPath(p.cfg.OutputDir, index)
	if err != nil {
		return "", fmt.Errorf("パネル画像の保存先の解決に失敗しました: %w", err)
	}

	chars, loc, refs := p.panelReferences(ctx, scene, panel)
	prompt, negative := p.imagePrompt.BuildPanel(panel, chars, loc)

	var seed int64
	if len(chars) > 0 {
		seed = chars[0].ResolvedSeed()
	}

	start := time.Now()
	res, err := p.renderer.Render(ctx, adapters.RenderRequest{
		Prompt:         prompt,
		NegativePrompt: negative,
		References:     refs,
		Seed:           seed,
		AspectRatio:    p.cfg.AspectRatio,
	})
	if err == nil && (res == nil || len(res.Data) == 0) {
		err = adapters.ErrEmptyResponse
	}
	if err == nil {
		if err = asset.WriteFileAtomic(path, res.Data); err == nil {
			p.metrics.PanelsRendered.Inc()
			slog.InfoContext(ctx, "パネル画像を生成しました",
				slog.Int("panel_index", index),
				slog.String("scene_id", scene.ID),
				slog.Int("references", len(refs)),
				slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
			)
			return path, nil
		}
	}

	slog.WarnContext(ctx, "パネル画像の生成に失敗したため、プレースホルダーを使用します",
		slog.Int("panel_index", index),
		slog.String("scene_id", scene.ID),
		slog.Any("error", err),
	)
	p.metrics.Fallback(ctx, adapters.StageRender, err)
	if err := asset.WritePlaceholder(path, asset.PlaceholderLabel(panel.Description)); err != nil {
		return path, fmt.Errorf("プレースホルダーの書き出しに失敗しました: %w", err)
	}
	p.metrics.Placeholder(ctx, asset.PanelsDir)
	return path, nil
}

// panelReferences はパネルに登場するキャラクターとロケーションのアセットを解決します。
// レジストリにない名前はその場で登録し、以降のパネルでも同じ見た目を使えるようにします。
func (p *Pipeline) panelReferences(ctx context.Context, scene domain.Scene, panel domain.Panel) ([]domain.Character, *domain.Location, []string) {
	var (
		chars []domain.Character
		refs  []string
	)
	for _, name := range panel.Characters {
		if _, ok := p.registry.Character(name); !ok {
			p.registry.UpsertCharacter(name, "", "")
		}
		imagePath, err := p.registry.ResolveCharacterImage(ctx, name)
		if err != nil {
			slog.WarnContext(ctx, "キャラクター画像の解決に失敗しました", slog.String("name", name), slog.Any("error", err))
		} else {
			refs = append(refs, imagePath)
		}
		if err := p.registry.MarkSeen(name, scene.ID); err != nil {
			slog.WarnContext(ctx, "登場シーンの更新に失敗しました", slog.String("name", name), slog.Any("error", err))
		}
		if c, ok := p.registry.Character(name); ok {
			chars = append(chars, c)
		}
	}

	if panel.Location == "" {
		return chars, nil, refs
	}
	if _, ok := p.registry.Location(panel.Location); !ok {
		p.registry.UpsertLocation(panel.Location, "", "", "")
	}
	imagePath, err := p.registry.ResolveLocationImage(ctx, panel.Location)
	if err != nil {
		slog.WarnContext(ctx, "ロケーション画像の解決に失敗しました", slog.String("name", panel.Location), slog.Any("error", err))
	} else {
		refs = append(refs, imagePath)
	}
	loc, ok := p.registry.Location(panel.Location)
	if !ok {
		return chars, nil, refs
	}
	return chars, &loc, refs
}
