package domain

import "strings"

// Language is a runtime identifier understood by the execution backend
type Language string

const (
	LanguagePython Language = "python"
	LanguageCpp    Language = "cpp"
	LanguageJava   Language = "java"
	LanguageC      Language = "c"
)

// legacyLanguageIDs maps the numeric ids of the previous execution contract.
var legacyLanguageIDs = map[string]Language{
	"71": LanguagePython,
	"54": LanguageCpp,
	"62": LanguageJava,
	"50": LanguageC,
}

// ParseLanguage resolves a language name or legacy numeric id.
// The second return value is false when no runtime exists for id.
func ParseLanguage(id string) (Language, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if lang, ok := legacyLanguageIDs[id]; ok {
		return lang, true
	}
	switch Language(id) {
	case LanguagePython, LanguageCpp, LanguageJava, LanguageC:
		return Language(id), true
	}
	return "", false
}

// Execution status ids
const (
	StatusIDAccepted     = 3
	StatusIDRuntimeError = 12
)

// ExecutionRequest is a single run of source code against one stdin
type ExecutionRequest struct {
	SourceCode string
	Language   Language
	Stdin      string
}

// ExecutionResult is the normalized outcome of one execution request
type ExecutionResult struct {
	Stdout      *string  `json:"stdout"`
	Stderr      *string  `json:"stderr"`
	StatusID    int      `json:"statusId"`
	ElapsedTime *float64 `json:"elapsedTime"`
	MemoryUsed  *float64 `json:"memoryUsed"`
}

// Accepted reports whether the process exited cleanly.
func (r *ExecutionResult) Accepted() bool {
	return r != nil && r.StatusID == StatusIDAccepted
}
