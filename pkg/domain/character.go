package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// TransitionType はロケーションの屋内外区分です。
type TransitionType string

const (
	TransitionInterior     TransitionType = "interior"
	TransitionExterior     TransitionType = "exterior"
	TransitionTransitional TransitionType = "transitional"
)

// Character は物語に登場するキャラクターの定義を保持します。
// レジストリが唯一の所有者であり、Scene や Panel は Name で参照します。
type Character struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	VisualTraits  string `json:"visual_traits"`
	ImagePath     string `json:"image_path"`      // 空文字は未生成
	LastSeenScene string `json:"last_seen_scene"` // 最後に登場したシーンID
	Seed          int64  `json:"seed,omitempty"`  // 0 の場合は名前から導出
}

// Location は物語の舞台となるロケーションの定義を保持します。
type Location struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ImagePath      string         `json:"image_path"`
	ParentLocation string         `json:"parent_location"`
	TransitionType TransitionType `json:"transition_type"`
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	if c.Description == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Description)
}

// ResolvedSeed は設定済みの Seed、または名前から導出したシード値を返します。
func (c Character) ResolvedSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return int64(GetSeedFromName(c.Name))
}

// GetSeedFromName は名前から決定論的なシード値を生成します。
func GetSeedFromName(name string) int32 {
	hash := sha256.Sum256([]byte(name))
	seed := int32(binary.BigEndian.Uint32(hash[:4]))
	// Geminiのシード値は正の数が望ましいため、最上位ビットを落とすのだ
	return seed & 0x7FFFFFFF
}

// NormalizeTransitionType は既知の区分に正規化します。未知の値は空文字を返します。
func NormalizeTransitionType(v string) TransitionType {
	switch t := TransitionType(strings.ToLower(strings.TrimSpace(v))); t {
	case TransitionInterior, TransitionExterior, TransitionTransitional:
		return t
	default:
		return ""
	}
}

// OrDefault は未設定の区分を interior として扱います。
func (t TransitionType) OrDefault() TransitionType {
	if t == "" {
		return TransitionInterior
	}
	return t
}

// 外部モデルの解析に失敗した場合に使われるエンティティ名です。
const (
	FallbackCharacterName = "Main Character"
	FallbackLocationName  = "Story Location"
)
