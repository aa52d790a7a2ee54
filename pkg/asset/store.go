package asset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// fileLocks はパスごとの書き込みロックです。
var fileLocks sync.Map

func fileLock(path string) *sync.Mutex {
	value, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return value.(*sync.Mutex)
}

// WriteFileAtomic は一時ファイルへ書き込んだ後に rename することで、
// 読み手が書きかけのファイルを観測しないようにファイルを保存します。
func WriteFileAtomic(path string, data []byte) error {
	lock := fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("一時ファイルの保存に失敗しました (%s): %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			slog.Warn("一時ファイルの削除に失敗しました", slog.String("path", tempPath), slog.Any("error", removeErr))
		}
		return fmt.Errorf("ファイルの保存に失敗しました (%s): %w", path, err)
	}
	return nil
}

// WriteJSONAtomic は v をインデント付き JSON として原子的に保存します。
func WriteJSONAtomic(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("JSONのシリアライズに失敗しました: %w", err)
	}
	return WriteFileAtomic(path, content)
}

// ReadJSON は path の JSON を v に読み込みます。ファイルが存在しない場合は found=false を返します。
func ReadJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ファイルの読み込みに失敗しました (%s): %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("JSONのデコードに失敗しました (%s): %w", path, err)
	}
	return true, nil
}
