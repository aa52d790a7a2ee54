package parser

import "regexp"

var (
	// jsonBlockRegex は ```json ... ``` 形式のコードフェンス内部をキャプチャします。
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

	// trailingCommaBracketRegex は閉じ括弧直前の余分なカンマに一致します。
	trailingCommaBracketRegex = regexp.MustCompile(`,(\s*[}\]])`)

	// trailingCommaParenRegex は閉じ丸括弧直前の余分なカンマに一致します。
	trailingCommaParenRegex = regexp.MustCompile(`,(\s*\))`)

	// trailingCommaEndRegex はテキスト末尾のカンマに一致します。
	trailingCommaEndRegex = regexp.MustCompile(`,\s*$`)
)
