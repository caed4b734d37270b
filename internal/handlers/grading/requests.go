package grading

import (
	"bytes"
	"encoding/json"

	"gitlab.com/assessment-grader.net/internal/domain"
)

// LanguageID accepts a language name or a legacy numeric id
type LanguageID string

func (l *LanguageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LanguageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = LanguageID(n.String())
	return nil
}

// RunQuestionRequest represents a run of code against a stored question
type RunQuestionRequest struct {
	Code     string     `json:"code"`
	Language LanguageID `json:"language"`
}

// GradeRequest represents a run against test cases supplied by the caller
type GradeRequest struct {
	Question domain.Question `json:"question"`
	Code     string          `json:"code"`
	Language LanguageID      `json:"language"`
}
