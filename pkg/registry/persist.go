package registry

import (
	"fmt"

	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
)

// Persist は characters.json と locations.json を登録順のリストとして原子的に書き出します。
func (r *Registry) Persist() error {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	charPath, locPath := asset.RegistryPaths(r.outputDir)
	if err := asset.WriteJSONAtomic(charPath, r.Characters()); err != nil {
		return fmt.Errorf("キャラクターレジストリの保存に失敗しました: %w", err)
	}
	if err := asset.WriteJSONAtomic(locPath, r.Locations()); err != nil {
		return fmt.Errorf("ロケーションレジストリの保存に失敗しました: %w", err)
	}
	return nil
}

// Load は保存済みのレジストリを読み込み、名前単位でマージします。
// ファイルが存在しない場合はエラーになりません。
func (r *Registry) Load() error {
	charPath, locPath := asset.RegistryPaths(r.outputDir)

	var chars []domain.Character
	if _, err := asset.ReadJSON(charPath, &chars); err != nil {
		return fmt.Errorf("キャラクターレジストリの読み込みに失敗しました: %w", err)
	}
	var locs []domain.Location
	if _, err := asset.ReadJSON(locPath, &locs); err != nil {
		return fmt.Errorf("ロケーションレジストリの読み込みに失敗しました: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range chars {
		if c.Name == "" {
			continue
		}
		r.mergeCharacter(c)
	}
	for _, l := range locs {
		if l.Name == "" {
			continue
		}
		l.TransitionType = domain.NormalizeTransitionType(string(l.TransitionType))
		r.mergeLocation(l)
	}
	return nil
}

// mergeCharacter は読み込んだレコードを登録します。既存のレコードは空のフィールドだけを補完するのだ。
func (r *Registry) mergeCharacter(in domain.Character) {
	cur, ok := r.characters[in.Name]
	if !ok {
		r.characters[in.Name] = in
		r.charOrder = append(r.charOrder, in.Name)
		return
	}
	if cur.Description == "" {
		cur.Description = in.Description
	}
	if cur.VisualTraits == "" {
		cur.VisualTraits = in.VisualTraits
	}
	if cur.ImagePath == "" {
		cur.ImagePath = in.ImagePath
	}
	if cur.LastSeenScene == "" {
		cur.LastSeenScene = in.LastSeenScene
	}
	if cur.Seed == 0 {
		cur.Seed = in.Seed
	}
	r.characters[in.Name] = cur
}

func (r *Registry) mergeLocation(in domain.Location) {
	cur, ok := r.locations[in.Name]
	if !ok {
		r.locations[in.Name] = in
		r.locOrder = append(r.locOrder, in.Name)
		return
	}
	if cur.Description == "" {
		cur.Description = in.Description
	}
	if cur.ImagePath == "" {
		cur.ImagePath = in.ImagePath
	}
	if cur.ParentLocation == "" {
		cur.ParentLocation = in.ParentLocation
	}
	if cur.TransitionType == "" {
		cur.TransitionType = in.TransitionType
	}
	r.locations[in.Name] = cur
}
