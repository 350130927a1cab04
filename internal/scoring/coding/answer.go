package coding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extLanguages maps source file extensions to runner language names.
var extLanguages = map[string]string{
	".py":    "python",
	".go":    "go",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".c":     "c",
	".cpp":   "c++",
	".cc":    "c++",
	".cs":    "csharp",
	".rb":    "ruby",
	".rs":    "rust",
	".kt":    "kotlin",
	".php":   "php",
	".swift": "swift",
}

// LanguageFor guesses the language of a source file from its extension,
// falling back to DefaultLanguage.
func LanguageFor(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return DefaultLanguage
}

// EncodeAnswer renders a in the wire form ParseAnswer accepts.
func EncodeAnswer(a Answer) string {
	b, _ := json.Marshal(struct {
		Language string `json:"language"`
		Code     string `json:"code"`
	}{a.Language, a.Code})
	return string(b)
}

// ReadAnswerFile loads a solution from disk and encodes it as an answer.
func ReadAnswerFile(path string) (string, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read solution: %w", err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return "", fmt.Errorf("solution file %s is empty", path)
	}
	return EncodeAnswer(Answer{Language: LanguageFor(path), Code: string(code)}), nil
}
