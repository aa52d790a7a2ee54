package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// CharactersDir はキャラクター画像を格納するディレクトリ名です。
	CharactersDir = "characters"
	// LocationsDir はロケーション画像を格納するディレクトリ名です。
	LocationsDir = "locations"
	// PanelsDir はパネル画像を格納するディレクトリ名です。
	PanelsDir = "panels"
	// CharactersFile はキャラクターレジストリの JSON ファイル名です。
	CharactersFile = "characters.json"
	// LocationsFile はロケーションレジストリの JSON ファイル名です。
	LocationsFile = "locations.json"
	// DefaultPanelFileName はパネル画像の共通のベースファイル名です。
	DefaultPanelFileName = "panel.png"

	fallbackSuffix = "_fallback"
)

// Kind はエンティティ画像の種別です。
type Kind string

const (
	KindCharacter Kind = CharactersDir
	KindLocation  Kind = LocationsDir
)

// PanelFileRegex はパネル画像 (panel_1.png 等) に一致します
var PanelFileRegex = createIndexedRegex(DefaultPanelFileName)

// fileNameSanitizer はファイル名として使用できない文字を置換します。
var fileNameSanitizer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFileName はエンティティ名を小文字化し、ファイル名として安全な文字列に変換します。
func SanitizeFileName(name string) string {
	return fileNameSanitizer.Replace(strings.ToLower(name))
}

// EnsureLayout は出力ディレクトリ配下のアセット用ディレクトリを作成します。
func EnsureLayout(outputDir string) error {
	for _, dir := range []string{CharactersDir, LocationsDir, PanelsDir} {
		if err := os.MkdirAll(filepath.Join(outputDir, dir), 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました (%s): %w", dir, err)
		}
	}
	return nil
}

// EntityImagePath はエンティティ画像の保存先 (<out>/<kind>/<sanitized>.png) を返します。
func EntityImagePath(outputDir string, kind Kind, name string) (string, error) {
	return urlpath.ResolveOutputPath(filepath.Join(outputDir, string(kind)), SanitizeFileName(name)+".png")
}

// FallbackImagePath はプレースホルダー画像の保存先 (<out>/<kind>/<sanitized>_fallback.png) を返します。
func FallbackImagePath(outputDir string, kind Kind, name string) (string, error) {
	return urlpath.ResolveOutputPath(filepath.Join(outputDir, string(kind)), SanitizeFileName(name)+fallbackSuffix+".png")
}

// PanelPath は index 番目（1始まり）のパネル画像の保存先 (<out>/panels/panel_N.png) を返します。
func PanelPath(outputDir string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(filepath.Join(outputDir, PanelsDir, DefaultPanelFileName), index)
}

// RegistryPaths はキャラクターとロケーションのレジストリファイルのパスを返します。
func RegistryPaths(outputDir string) (characters string, locations string) {
	return filepath.Join(outputDir, CharactersFile), filepath.Join(outputDir, LocationsFile)
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "panel.png" -> ^panel_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
