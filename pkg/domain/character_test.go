package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCharacter_JSON(t *testing.T) {
	t.Run("保存形式のキー名で読み込めること", func(t *testing.T) {
		input := []byte(`{
			"name": "Luna",
			"description": "A young mage",
			"visual_traits": "silver hair, blue cloak",
			"image_path": null,
			"last_seen_scene": null
		}`)

		var c Character
		if err := json.Unmarshal(input, &c); err != nil {
			t.Fatalf("Unmarshal失敗なのだ: %v", err)
		}
		if c.Name != "Luna" || c.VisualTraits != "silver hair, blue cloak" {
			t.Errorf("フィールドが正しくパースされていないのだ: %+v", c)
		}
		if c.ImagePath != "" || c.LastSeenScene != "" {
			t.Errorf("null は空文字として扱われるべきなのだ: %+v", c)
		}
	})

	t.Run("変換前後でデータが一致すること", func(t *testing.T) {
		char := Character{
			Name:          "Orion",
			Description:   "A wandering knight",
			VisualTraits:  "tall, scar over left eye",
			ImagePath:     "comic_output/characters/orion.png",
			LastSeenScene: "scene_2",
			Seed:          123456789012345,
		}

		data, err := json.Marshal(char)
		if err != nil {
			t.Fatalf("Marshal失敗なのだ: %v", err)
		}
		var decoded Character
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal失敗なのだ: %v", err)
		}
		if !reflect.DeepEqual(char, decoded) {
			t.Errorf("期待: %+v, 実際: %+v", char, decoded)
		}
	})
}

func TestGetSeedFromName(t *testing.T) {
	t.Run("同じ名前から同じSeedが生成されること", func(t *testing.T) {
		if GetSeedFromName("Luna") != GetSeedFromName("Luna") {
			t.Error("同じ名前から異なるSeedが生成されました。決定論的ではありません")
		}
	})

	t.Run("Seedは常に非負であること", func(t *testing.T) {
		for _, name := range []string{"Luna", "Orion", "", "Main Character"} {
			if s := GetSeedFromName(name); s < 0 {
				t.Errorf("%q のSeedが負の値です: %d", name, s)
			}
		}
	})

	t.Run("設定済みのSeedが優先されること", func(t *testing.T) {
		c := Character{Name: "Luna", Seed: 999}
		if c.ResolvedSeed() != 999 {
			t.Errorf("期待値 999, 実際の値 %d", c.ResolvedSeed())
		}
		c.Seed = 0
		if c.ResolvedSeed() != int64(GetSeedFromName("Luna")) {
			t.Error("Seed未設定の場合は名前から導出されるべきです")
		}
	})
}

func TestCharactersMap_FindCharacter(t *testing.T) {
	chars := BuildCharactersMap([]Character{{Name: "Luna"}, {Name: "Orion"}})

	if c := chars.FindCharacter("Luna"); c == nil || c.Name != "Luna" {
		t.Errorf("Luna が見つかりませんでした: %v", c)
	}
	if c := chars.FindCharacter("luna"); c != nil {
		t.Error("表記ゆれは別キャラクターとして扱われるべきです")
	}
	var empty CharactersMap
	if empty.FindCharacter("Luna") != nil {
		t.Error("nil マップでは nil が返るべきです")
	}
}

func TestNormalizeTransitionType(t *testing.T) {
	tests := []struct {
		in   string
		want TransitionType
	}{
		{"interior", TransitionInterior},
		{" Exterior ", TransitionExterior},
		{"transitional", TransitionTransitional},
		{"outdoors", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTransitionType(tt.in); got != tt.want {
			t.Errorf("NormalizeTransitionType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if TransitionType("").OrDefault() != TransitionInterior {
		t.Error("未設定の区分は interior として扱われるべきです")
	}
}

func TestCharacter_String(t *testing.T) {
	c := Character{Name: "Luna", Description: "mage"}
	if c.String() != "Luna (mage)" {
		t.Errorf("期待値 'Luna (mage)', 実際の値 '%s'", c.String())
	}
}
