package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON は応答に JSON らしき内容が含まれていないことを示します。
	ErrNoJSON = errors.New("応答にJSONが含まれていません")
	// ErrInvalidShape は JSON は読めたが期待する形をしていないことを示します。
	ErrInvalidShape = errors.New("応答の構造が期待と異なります")
)

// Shape は外部モデルの応答として期待される構造の契約です。
type Shape interface {
	// Validate は必須フィールドや値域を検査し、満たさない場合にエラーを返します。
	Validate() error
}

// CleanJSONResponse は AI 応答からコードフェンスを取り除き、
// よくある末尾カンマの誤りを修正した JSON 文字列を返します。
func CleanJSONResponse(raw string) string {
	raw = strings.TrimSpace(raw)
	text := raw

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		text = matches[1]
	} else {
		// フェンスがない場合は最も外側の JSON オブジェクトを探すのだ
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first != -1 && last > first {
			text = raw[first : last+1]
		}
	}

	text = strings.TrimSpace(text)
	text = trailingCommaBracketRegex.ReplaceAllString(text, "$1")
	text = trailingCommaParenRegex.ReplaceAllString(text, "$1")
	text = trailingCommaEndRegex.ReplaceAllString(text, "")
	return text
}

// Decode は応答を整形してから shape にデコードし、構造を検証します。
// shape には構造体へのポインタを渡します。
func Decode(raw string, shape Shape) error {
	cleaned := CleanJSONResponse(raw)
	if cleaned == "" || !strings.ContainsAny(cleaned, "{[") {
		return fmt.Errorf("%w (応答抜粋: %q)", ErrNoJSON, truncateString(raw, 200))
	}

	if err := json.Unmarshal([]byte(cleaned), shape); err != nil {
		return fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
