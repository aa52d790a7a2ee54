package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

type stubAnalyzer struct {
	response string
	err      error
}

func (s stubAnalyzer) Analyze(context.Context, string) (string, error) {
	return s.response, s.err
}

type countingRenderer struct {
	calls    atomic.Int32
	data     []byte
	err      error
	mu       sync.Mutex
	requests []adapters.RenderRequest
}

func (c *countingRenderer) Render(_ context.Context, req adapters.RenderRequest) (*adapters.RenderResult, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return &adapters.RenderResult{Data: c.data, MimeType: "image/png"}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := asset.RenderPlaceholder(16, 16, "ok")
	require.NoError(t, err)
	return data
}

func TestRegistry_Upsert(t *testing.T) {
	r := New(t.TempDir(), "1:1", Dependencies{})

	t.Run("既存のフィールドは上書きされないこと", func(t *testing.T) {
		first := r.UpsertCharacter("Alice", "a girl", "")
		assert.Equal(t, "a girl", first.Description)

		second := r.UpsertCharacter("Alice", "a different description", "red hair")
		assert.Equal(t, "a girl", second.Description)
		assert.Equal(t, "red hair", second.VisualTraits, "空のフィールドは補完される")
	})

	t.Run("名前は完全一致で区別されること", func(t *testing.T) {
		r.UpsertCharacter("alice", "lowercase", "")
		assert.Len(t, r.Characters(), 2)
	})

	t.Run("ロケーションの区分は正規化されること", func(t *testing.T) {
		l := r.UpsertLocation("Forest", "dark woods", "", "EXTERIOR")
		assert.Equal(t, domain.TransitionExterior, l.TransitionType)

		u := r.UpsertLocation("Cave", "", "", "unknown")
		assert.Equal(t, domain.TransitionType(""), u.TransitionType)
	})

	t.Run("一覧は登録順であること", func(t *testing.T) {
		names := []string{}
		for _, c := range r.Characters() {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Alice", "alice"}, names)
	})
}

func TestRegistry_MarkSeen(t *testing.T) {
	r := New(t.TempDir(), "", Dependencies{})
	r.UpsertCharacter("Bob", "", "")

	require.NoError(t, r.MarkSeen("Bob", "scene_2"))
	c, ok := r.Character("Bob")
	require.True(t, ok)
	assert.Equal(t, "scene_2", c.LastSeenScene)

	assert.ErrorIs(t, r.MarkSeen("Nobody", "scene_1"), ErrNotFound)
}

func TestRegistry_ExtractEntities(t *testing.T) {
	t.Run("オフライン時はフォールバックのエンティティが登録されること", func(t *testing.T) {
		dir := t.TempDir()
		r := New(dir, "", Dependencies{Analyzer: adapters.Offline{}})

		chars, locs := r.ExtractEntities(context.Background(), "Once upon a time.")
		require.Len(t, chars, 1)
		require.Len(t, locs, 1)
		assert.Equal(t, domain.FallbackCharacterName, chars[0].Name)
		assert.Equal(t, FallbackCharacterVisualTraits, chars[0].VisualTraits)
		assert.Equal(t, domain.FallbackLocationName, locs[0].Name)
		assert.Equal(t, domain.TransitionInterior, locs[0].TransitionType)

		charPath, _ := asset.RegistryPaths(dir)
		assert.FileExists(t, charPath)
	})

	t.Run("不正な応答もフォールバックとなること", func(t *testing.T) {
		r := New(t.TempDir(), "", Dependencies{Analyzer: stubAnalyzer{response: "I cannot help with that"}})
		chars, _ := r.ExtractEntities(context.Background(), "text")
		require.Len(t, chars, 1)
		assert.Equal(t, domain.FallbackCharacterName, chars[0].Name)
	})

	t.Run("応答のエンティティが登録されること", func(t *testing.T) {
		resp := "```json\n" + `{
  "characters": [{"name": "Alice", "description": "hero", "visual_traits": "red hair"},],
  "locations": [{"name": "Forest", "description": "woods", "parent_location": null, "transition_type": "exterior"}]
}` + "\n```"
		r := New(t.TempDir(), "", Dependencies{Analyzer: stubAnalyzer{response: resp}})

		chars, locs := r.ExtractEntities(context.Background(), "text")
		require.Len(t, chars, 1)
		require.Len(t, locs, 1)
		assert.Equal(t, "red hair", chars[0].VisualTraits)
		assert.Equal(t, domain.TransitionExterior, locs[0].TransitionType)

		_, ok := r.Character(domain.FallbackCharacterName)
		assert.False(t, ok)
	})
}

func TestRegistry_PersistLoad(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, "", Dependencies{})
	r.UpsertCharacter("Alice", "hero", "red hair")
	r.UpsertCharacter("Bob", "", "")
	r.UpsertLocation("Forest", "woods", "World", domain.TransitionExterior)
	require.NoError(t, r.MarkSeen("Alice", "scene_1"))
	require.NoError(t, r.Persist())

	loaded := New(dir, "", Dependencies{})
	require.NoError(t, loaded.Load())
	require.NoError(t, loaded.Persist())

	again := New(dir, "", Dependencies{})
	require.NoError(t, again.Load())

	assert.Equal(t,
		domain.BuildCharactersMap(r.Characters()),
		domain.BuildCharactersMap(again.Characters()))
	assert.Equal(t,
		domain.BuildLocationsMap(r.Locations()),
		domain.BuildLocationsMap(again.Locations()))

	t.Run("ファイルがない場合はエラーにならないこと", func(t *testing.T) {
		empty := New(t.TempDir(), "", Dependencies{})
		assert.NoError(t, empty.Load())
		assert.Empty(t, empty.Characters())
	})

	t.Run("読み込みは追加的であること", func(t *testing.T) {
		other := New(dir, "", Dependencies{})
		other.UpsertCharacter("Carol", "", "")
		other.UpsertCharacter("Alice", "", "")
		require.NoError(t, other.Load())

		alice, _ := other.Character("Alice")
		assert.Equal(t, "hero", alice.Description)
		assert.Len(t, other.Characters(), 3)
	})
}

func TestRegistry_ResolveImage(t *testing.T) {
	t.Run("2回続けて解決しても生成は1回であること", func(t *testing.T) {
		dir := t.TempDir()
		renderer := &countingRenderer{data: pngBytes(t)}
		r := New(dir, "1:1", Dependencies{Renderer: renderer})
		r.UpsertCharacter("Alice", "hero", "red hair")

		first, err := r.ResolveCharacterImage(context.Background(), "Alice")
		require.NoError(t, err)
		second, err := r.ResolveCharacterImage(context.Background(), "Alice")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, filepath.Join(dir, asset.CharactersDir, "alice.png"), first)
		assert.EqualValues(t, 1, renderer.calls.Load())

		c, _ := r.Character("Alice")
		assert.Equal(t, first, c.ImagePath)
		assert.Equal(t, c.ResolvedSeed(), renderer.requests[0].Seed)
	})

	t.Run("並行して解決しても生成は1回にまとめられること", func(t *testing.T) {
		renderer := &countingRenderer{data: pngBytes(t)}
		r := New(t.TempDir(), "", Dependencies{Renderer: renderer})
		r.UpsertLocation("Dark Forest", "woods", "", domain.TransitionExterior)

		var wg sync.WaitGroup
		paths := make([]string, 8)
		for i := range paths {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := r.ResolveLocationImage(context.Background(), "Dark Forest")
				assert.NoError(t, err)
				paths[i] = p
			}(i)
		}
		wg.Wait()

		assert.EqualValues(t, 1, renderer.calls.Load())
		for _, p := range paths {
			assert.Equal(t, paths[0], p)
		}
	})

	t.Run("生成失敗時はプレースホルダーが書き出されキャッシュされること", func(t *testing.T) {
		dir := t.TempDir()
		renderer := &countingRenderer{err: errors.New("quota")}
		r := New(dir, "", Dependencies{Renderer: renderer})
		r.UpsertCharacter("Bob Smith", "", "")

		path, err := r.ResolveCharacterImage(context.Background(), "Bob Smith")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, asset.CharactersDir, "bob_smith_fallback.png"), path)
		assert.True(t, asset.ValidImage(path))

		_, err = r.ResolveCharacterImage(context.Background(), "Bob Smith")
		require.NoError(t, err)
		assert.EqualValues(t, 1, renderer.calls.Load())
	})

	t.Run("空のデータはプレースホルダーになること", func(t *testing.T) {
		renderer := &countingRenderer{}
		r := New(t.TempDir(), "", Dependencies{Renderer: renderer})
		r.UpsertLocation("Cave", "", "", "")

		path, err := r.ResolveLocationImage(context.Background(), "Cave")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(path, "cave_fallback.png"))
	})

	t.Run("壊れたキャッシュ画像は再生成されること", func(t *testing.T) {
		dir := t.TempDir()
		renderer := &countingRenderer{data: pngBytes(t)}
		r := New(dir, "", Dependencies{Renderer: renderer})
		r.UpsertCharacter("Alice", "", "")

		broken := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o644))
		r.setCharacterImage("Alice", broken)

		path, err := r.ResolveCharacterImage(context.Background(), "Alice")
		require.NoError(t, err)
		assert.NotEqual(t, broken, path)
		assert.EqualValues(t, 1, renderer.calls.Load())
	})

	t.Run("ロケーションのプロンプトはサニタイズされること", func(t *testing.T) {
		renderer := &countingRenderer{data: pngBytes(t)}
		r := New(t.TempDir(), "", Dependencies{Renderer: renderer})
		r.UpsertLocation("Market", "a busy market with a crowd of people", "", domain.TransitionExterior)

		_, err := r.ResolveLocationImage(context.Background(), "Market")
		require.NoError(t, err)
		require.Len(t, renderer.requests, 1)
		prompt := renderer.requests[0].Prompt
		assert.NotContains(t, prompt, "crowd")
		assert.Contains(t, prompt, prompts.NoCharactersDirective)
	})

	t.Run("未登録の名前は ErrNotFound となること", func(t *testing.T) {
		r := New(t.TempDir(), "", Dependencies{})
		_, err := r.ResolveCharacterImage(context.Background(), "Ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
