package prompts

import (
	"regexp"
	"strings"
)

// locationCharacterKeywords は背景プロンプトに人物の描画を誘発する語の一覧です。
var locationCharacterKeywords = []string{
	"character",
	"person",
	"people",
	"human",
	"figure",
	"silhouette",
	"someone",
	"anyone",
	"crowd",
	"passerby",
	"occupant",
	"resident",
}

// locationCharacterRegex は上記の語（複数形を含む）に単語単位で一致します。
var locationCharacterRegex = regexp.MustCompile(`\b(` + strings.Join(locationCharacterKeywords, "|") + `)s?\b`)

// NoCharactersDirective は背景画像に人物を含めないための明示的な指示です。
const NoCharactersDirective = "CRITICAL: Generate ONLY the environment/background with NO characters, people, or living beings."

// SanitizeLocationPrompt は背景プロンプトから人物を示す語を "environment" に置き換え、
// 人物を含めない指示がなければ末尾に追加します。
func SanitizeLocationPrompt(prompt string) string {
	hasDirective := strings.Contains(prompt, "NO characters") || strings.Contains(prompt, "NO people")
	prompt = locationCharacterRegex.ReplaceAllString(prompt, "environment")

	if !hasDirective {
		prompt += "\n\n" + NoCharactersDirective
	}
	return prompt
}
