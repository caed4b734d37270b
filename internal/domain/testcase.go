package domain

// TestCase is one stdin/expected-stdout pair owned by a question.
type TestCase struct {
	Input       string  `json:"input"`
	Output      string  `json:"output"`
	Explanation *string `json:"explanation,omitempty"`
	IsPublic    bool    `json:"isPublic"`
}

// Question is the subset of a question the grader needs.
type Question struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	TestCases []TestCase `json:"testCases"`
}
