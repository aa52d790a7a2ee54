package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// ResolveCharacterImage はキャラクターの参照画像のパスを返します。
// 有効なキャッシュ済み画像があればそれを使い、なければ生成して保存します。
// 生成に失敗した場合もプレースホルダーを書き出すため、戻り値のパスは常に利用可能です。
func (r *Registry) ResolveCharacterImage(ctx context.Context, name string) (string, error) {
	char, ok := r.Character(name)
	if !ok {
		return "", fmt.Errorf("%w: character %q", ErrNotFound, name)
	}
	if char.ImagePath != "" && r.validImage(char.ImagePath) {
		return char.ImagePath, nil
	}

	v, err, _ := r.sf.Do(string(asset.KindCharacter)+"/"+name, func() (any, error) {
		// 待機中に別の呼び出しが生成を終えている場合はそれを使うのだ
		current, _ := r.Character(name)
		if current.ImagePath != "" && r.validImage(current.ImagePath) {
			return current.ImagePath, nil
		}

		prompt, negative := r.imagePrompt.BuildCharacter(current)
		path, err := r.renderEntity(ctx, asset.KindCharacter, name, adapters.RenderRequest{
			Prompt:         prompt,
			NegativePrompt: negative,
			Seed:           current.ResolvedSeed(),
			AspectRatio:    r.aspectRatio,
		}, "Character: "+name)
		if err != nil {
			return "", err
		}
		r.setCharacterImage(name, path)
		r.persistQuietly(ctx)
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ResolveLocationImage はロケーションの背景画像のパスを返します。
// 背景プロンプトは人物を含まないようにサニタイズされます。
func (r *Registry) ResolveLocationImage(ctx context.Context, name string) (string, error) {
	loc, ok := r.Location(name)
	if !ok {
		return "", fmt.Errorf("%w: location %q", ErrNotFound, name)
	}
	if loc.ImagePath != "" && r.validImage(loc.ImagePath) {
		return loc.ImagePath, nil
	}

	v, err, _ := r.sf.Do(string(asset.KindLocation)+"/"+name, func() (any, error) {
		current, _ := r.Location(name)
		if current.ImagePath != "" && r.validImage(current.ImagePath) {
			return current.ImagePath, nil
		}

		prompt, negative := r.imagePrompt.BuildLocation(current)
		path, err := r.renderEntity(ctx, asset.KindLocation, name, adapters.RenderRequest{
			Prompt:         prompt,
			NegativePrompt: negative,
			Seed:           int64(domain.GetSeedFromName(name)),
			AspectRatio:    r.aspectRatio,
		}, "Location: "+name)
		if err != nil {
			return "", err
		}
		r.setLocationImage(name, path)
		r.persistQuietly(ctx)
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// renderEntity は画像を生成して保存し、失敗時はプレースホルダーを書き出します。
func (r *Registry) renderEntity(ctx context.Context, kind asset.Kind, name string, req adapters.RenderRequest, fallbackLabel string) (string, error) {
	res, err := r.renderer.Render(ctx, req)
	if err == nil && (res == nil || len(res.Data) == 0) {
		err = adapters.ErrEmptyResponse
	}

	if err == nil {
		path, pathErr := asset.EntityImagePath(r.outputDir, kind, name)
		if pathErr != nil {
			return "", fmt.Errorf("画像の保存先の解決に失敗しました: %w", pathErr)
		}
		if writeErr := asset.WriteFileAtomic(path, res.Data); writeErr != nil {
			err = writeErr
		} else {
			slog.InfoContext(ctx, "エンティティ画像を生成しました",
				slog.String("kind", string(kind)),
				slog.String("name", name),
				slog.String("path", path),
			)
			return path, nil
		}
	}

	slog.WarnContext(ctx, "エンティティ画像の生成に失敗したため、プレースホルダーを使用します",
		slog.String("kind", string(kind)),
		slog.String("name", name),
		slog.Any("error", err),
	)
	r.observer.Fallback(ctx, adapters.StageRender, err)

	path, pathErr := asset.FallbackImagePath(r.outputDir, kind, name)
	if pathErr != nil {
		return "", fmt.Errorf("プレースホルダーの保存先の解決に失敗しました: %w", pathErr)
	}
	if err := asset.WritePlaceholder(path, fallbackLabel); err != nil {
		return "", fmt.Errorf("プレースホルダーの書き出しに失敗しました (%s): %w", name, err)
	}
	r.observer.Placeholder(ctx, string(kind))
	return path, nil
}

// validImage は画像が存在しデコード可能かを返します。結果はパスと更新時刻をキーにメモ化されます。
func (r *Registry) validImage(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	key := path + "@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if v, found := r.validity.Get(key); found {
		if ok, isBool := v.(bool); isBool {
			return ok
		}
	}
	ok := asset.ValidImage(path)
	r.validity.SetDefault(key, ok)
	return ok
}

func (r *Registry) persistQuietly(ctx context.Context) {
	if err := r.Persist(); err != nil {
		slog.WarnContext(ctx, "レジストリの保存に失敗しました", slog.Any("error", err))
	}
}
