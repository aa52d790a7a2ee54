package domain

// CharactersMap は名前をキーとしたキャラクターの検索用マップなのだ。
type CharactersMap map[string]Character

// LocationsMap は名前をキーとしたロケーションの検索用マップなのだ。
type LocationsMap map[string]Location

// BuildCharactersMap はスライス形式のデータを検索効率の良いマップ形式に変換するのだ。
// 同名のレコードは後勝ちになります。
func BuildCharactersMap(chars []Character) CharactersMap {
	m := make(CharactersMap, len(chars))
	for _, c := range chars {
		m[c.Name] = c
	}
	return m
}

// BuildLocationsMap はスライス形式のデータをマップ形式に変換するのだ。
func BuildLocationsMap(locs []Location) LocationsMap {
	m := make(LocationsMap, len(locs))
	for _, l := range locs {
		m[l.Name] = l
	}
	return m
}

// FindCharacter は名前の完全一致でキャラクター情報を特定します。
// 表記ゆれは別キャラクターとして扱うため、大文字小文字の正規化は行いません。
func (m CharactersMap) FindCharacter(name string) *Character {
	if m == nil {
		return nil
	}
	if char, ok := m[name]; ok {
		res := char
		return &res
	}
	return nil
}

// FindLocation は名前の完全一致でロケーション情報を特定します。
func (m LocationsMap) FindLocation(name string) *Location {
	if m == nil {
		return nil
	}
	if loc, ok := m[name]; ok {
		res := loc
		return &res
	}
	return nil
}
