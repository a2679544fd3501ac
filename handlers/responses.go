package handlers

import (
	"strings"

	"github.com/nijaru/pitch-analyzer/utils"
)

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type funding struct {
	Raised  string `json:"raised"`
	Seeking string `json:"seeking"`
}

type market struct {
	Size     string `json:"size"`
	Traction string `json:"traction"`
}

type insight struct {
	StartupName      string   `json:"startup_name"`
	Summary          string   `json:"summary"`
	Founders         string   `json:"founders"`
	ProblemStatement string   `json:"problem_statement"`
	Solution         string   `json:"solution"`
	Funding          funding  `json:"funding"`
	Market           market   `json:"market"`
	Risks            []string `json:"risks"`
	KeyInsights      []string `json:"key_insights"`
	WordCount        int      `json:"word_count"`
}

type transcriptResponse struct {
	Transcript string    `json:"transcript"`
	Analysis   []insight `json:"analysis"`
}

type deckResponse struct {
	TOC                map[string][]int  `json:"toc"`
	Analysis           map[string]string `json:"analysis"`
	EmbeddingDimension int               `json:"embedding_dimension"`
}

// analyzeTranscript produces a fixed insight list derived only from the
// transcript text, so equal inputs always yield equal documents.
func analyzeTranscript(transcript string) []insight {
	return []insight{{
		StartupName:      "Unknown",
		Summary:          utils.FirstSentence(transcript),
		Founders:         "Not mentioned",
		ProblemStatement: "Not mentioned",
		Solution:         "Not mentioned",
		Funding:          funding{Raised: "Not mentioned", Seeking: "Not mentioned"},
		Market:           market{Size: "Not mentioned", Traction: "Not mentioned"},
		Risks:            []string{},
		KeyInsights:      []string{},
		WordCount:        len(strings.Fields(transcript)),
	}}
}
