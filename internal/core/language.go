package core

import (
	"path/filepath"
	"strings"
)

// Languages lists the labels offered by the interactive clients.
var Languages = []string{
	"javascript", "typescript", "python", "java", "csharp",
	"cpp", "go", "rust", "php", "ruby",
}

var extLanguages = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".java": "java",
	".cs":   "csharp",
	".c":    "cpp",
	".cc":   "cpp",
	".cpp":  "cpp",
	".cxx":  "cpp",
	".h":    "cpp",
	".hpp":  "cpp",
	".go":   "go",
	".rs":   "rust",
	".php":  "php",
	".rb":   "ruby",
}

// LanguageForFile guesses the language label from a file name. Unknown
// extensions fall back to the bare extension; no extension yields "".
func LanguageForFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

// IsKnownLanguage reports whether lang is one of Languages.
func IsKnownLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
