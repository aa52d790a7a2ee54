package asset

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
)

// ValidImage はファイルが存在し、画像としてデコードできるかを判定します。
func ValidImage(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return false
	}
	return cfg.Width > 0 && cfg.Height > 0
}

// DetectMimeType は画像データの先頭バイトから MIME タイプを判定します。
func DetectMimeType(data []byte) string {
	return http.DetectContentType(data)
}
