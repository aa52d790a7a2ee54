package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-novel-comic-kit/pkg/asset"
)

// AssetPath は解決済みのエンティティ画像です。
type AssetPath struct {
	Kind asset.Kind `json:"kind"`
	Name string     `json:"name"`
	Path string     `json:"path"`
}

// ResolveAssets は登録済みのすべてのキャラクターとロケーションの画像を並列に解決します。
// 並列数は Config.AssetConcurrency で制限され、個々の失敗はログに記録して続行します。
func (p *Pipeline) ResolveAssets(ctx context.Context) []AssetPath {
	ctx, span := tracer.Start(ctx, "pipeline.ResolveAssets")
	defer span.End()

	chars := p.registry.CharacterNames()
	locs := p.registry.LocationNames()
	results := make([]AssetPath, len(chars)+len(locs))

	var eg errgroup.Group
	eg.SetLimit(p.cfg.AssetConcurrency)

	for i, name := range chars {
		eg.Go(func() error {
			path, err := p.registry.ResolveCharacterImage(ctx, name)
			if err != nil {
				slog.WarnContext(ctx, "キャラクター画像の解決に失敗しました", slog.String("name", name), slog.Any("error", err))
			}
			results[i] = AssetPath{Kind: asset.KindCharacter, Name: name, Path: path}
			return nil
		})
	}
	for i, name := range locs {
		eg.Go(func() error {
			path, err := p.registry.ResolveLocationImage(ctx, name)
			if err != nil {
				slog.WarnContext(ctx, "ロケーション画像の解決に失敗しました", slog.String("name", name), slog.Any("error", err))
			}
			results[len(chars)+i] = AssetPath{Kind: asset.KindLocation, Name: name, Path: path}
			return nil
		})
	}
	_ = eg.Wait()

	slog.InfoContext(ctx, "アセットの解決が完了しました",
		slog.Int("characters", len(chars)),
		slog.Int("locations", len(locs)),
	)
	return results
}
