package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

// ErrNotFound は指定された名前のエンティティが登録されていないことを示します。
var ErrNotFound = errors.New("エンティティが登録されていません")

const (
	validityCacheTTL     = 10 * time.Minute
	validityCacheCleanup = 30 * time.Minute
)

// Dependencies はレジストリが利用するコラボレーターです。nil のフィールドはオフライン実装やデフォルトで補完されます。
type Dependencies struct {
	Analyzer       adapters.Analyzer
	Renderer       adapters.Renderer
	AnalysisPrompt prompts.AnalysisPrompt
	ImagePrompt    prompts.ImagePrompt
	Observer       adapters.Observer
}

// Registry はキャラクターとロケーションの唯一の所有者です。
// 参照は名前の完全一致で行い、呼び出し側には常に値のコピーを返します。
type Registry struct {
	mu         sync.RWMutex
	characters domain.CharactersMap
	charOrder  []string
	locations  domain.LocationsMap
	locOrder   []string

	outputDir   string
	aspectRatio string

	analyzer       adapters.Analyzer
	renderer       adapters.Renderer
	analysisPrompt prompts.AnalysisPrompt
	imagePrompt    prompts.ImagePrompt
	observer       adapters.Observer

	persistMu sync.Mutex
	sf        singleflight.Group
	validity  *cache.Cache // path+mtime -> bool
}

// New は outputDir を保存先とする空のレジストリを生成します。
func New(outputDir, aspectRatio string, deps Dependencies) *Registry {
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
		deps.ImagePrompt = prompts.NewImagePromptBuilder("")
	}
	if deps.Observer == nil {
		deps.Observer = adapters.NopObserver{}
	}
	return &Registry{
		characters:     make(domain.CharactersMap),
		locations:      make(domain.LocationsMap),
		outputDir:      outputDir,
		aspectRatio:    aspectRatio,
		analyzer:       deps.Analyzer,
		renderer:       deps.Renderer,
		analysisPrompt: deps.AnalysisPrompt,
		imagePrompt:    deps.ImagePrompt,
		observer:       deps.Observer,
		validity:       cache.New(validityCacheTTL, validityCacheCleanup),
	}
}

// UpsertCharacter はキャラクターを登録します。
// 既存のレコードは上書きせず、空のフィールドだけを新しい値で補完して正規のレコードを返します。
func (r *Registry) UpsertCharacter(name, description, visualTraits string) domain.Character {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.characters[name]
	if !ok {
		c = domain.Character{Name: name, Description: description, VisualTraits: visualTraits}
		r.charOrder = append(r.charOrder, name)
	} else {
		if c.Description == "" {
			c.Description = description
		}
		if c.VisualTraits == "" {
			c.VisualTraits = visualTraits
		}
	}
	r.characters[name] = c
	return c
}

// UpsertLocation はロケーションを登録します。ルールは UpsertCharacter と同じです。
func (r *Registry) UpsertLocation(name, description, parent string, transitionType domain.TransitionType) domain.Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locations[name]
	if !ok {
		l = domain.Location{
			Name:           name,
			Description:    description,
			ParentLocation: parent,
			TransitionType: domain.NormalizeTransitionType(string(transitionType)),
		}
		r.locOrder = append(r.locOrder, name)
	} else {
		if l.Description == "" {
			l.Description = description
		}
		if l.ParentLocation == "" {
			l.ParentLocation = parent
		}
		if l.TransitionType == "" {
			l.TransitionType = domain.NormalizeTransitionType(string(transitionType))
		}
	}
	r.locations[name] = l
	return l
}

// Character は名前でキャラクターを検索します。
func (r *Registry) Character(name string) (domain.Character, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := r.characters.FindCharacter(name); c != nil {
		return *c, true
	}
	return domain.Character{}, false
}

// Location は名前でロケーションを検索します。
func (r *Registry) Location(name string) (domain.Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l := r.locations.FindLocation(name); l != nil {
		return *l, true
	}
	return domain.Location{}, false
}

// Characters は登録順のキャラクター一覧を返します。
func (r *Registry) Characters() []domain.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Character, 0, len(r.charOrder))
	for _, name := range r.charOrder {
		out = append(out, r.characters[name])
	}
	return out
}

// Locations は登録順のロケーション一覧を返します。
func (r *Registry) Locations() []domain.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Location, 0, len(r.locOrder))
	for _, name := range r.locOrder {
		out = append(out, r.locations[name])
	}
	return out
}

// MarkSeen はキャラクターが最後に登場したシーンを更新します。
func (r *Registry) MarkSeen(name, sceneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.characters[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c.LastSeenScene = sceneID
	r.characters[name] = c
	return nil
}

// CharacterNames は登録済みキャラクター名を登録順で返します。
func (r *Registry) CharacterNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.charOrder...)
}

// LocationNames は登録済みロケーション名を登録順で返します。
func (r *Registry) LocationNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.locOrder...)
}

func (r *Registry) setCharacterImage(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.characters[name]; ok {
		c.ImagePath = path
		r.characters[name] = c
	}
}

func (r *Registry) setLocationImage(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locations[name]; ok {
		l.ImagePath = path
		r.locations[name] = l
	}
}
