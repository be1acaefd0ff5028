package formatting

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
)

func TestFormatComplexityReport(t *testing.T) {
	r := &complexity.ComplexityResult{
		IsComplex:             true,
		EstimatedSubTasks:     6,
		RequiresDecomposition: true,
		Confidence:            0.57,
		Tools: []complexity.ToolIndicator{
			{Category: "file_parser", Confidence: 0.95, SuggestedTools: []string{"file_reader", "csv_parser"}},
			{Category: "summarizer", Confidence: 0.3},
		},
		Resources: []complexity.ResourceReference{
			{Reference: "orders.csv", Kind: complexity.ResourceFile, SuggestedAction: "download_and_parse"},
		},
		Actions: []complexity.ActionPattern{
			{Verb: "fetch", Occurrences: 1, Category: complexity.ActionRetrieval, Priority: 2},
		},
	}

	out := FormatComplexityReport(r)
	expected := strings.Join([]string{
		"## Complexity Analysis",
		"Status: COMPLEX (57% confidence)",
		"Estimated sub-tasks: 6",
		"Requires decomposition: yes",
		"",
		"## Resources",
		"- [file] orders.csv -> download_and_parse",
		"",
		"## Tools",
		"- file_parser 95% (file_reader, csv_parser)",
		"- summarizer 30%",
		"",
		"## Actions",
		"- fetch (retrieval) x1, priority 2",
	}, "\n")
	assert.Equal(t, expected, out)
}

func TestFormatComplexityReport_Empty(t *testing.T) {
	out := FormatComplexityReport(complexity.Analyze(""))
	assert.Contains(t, out, "Status: SIMPLE (0% confidence)")
	assert.Contains(t, out, "Requires decomposition: no")
	assert.Equal(t, 3, strings.Count(out, "- none"))

	assert.Equal(t, "", FormatComplexityReport(nil))
}

func TestFormatComplexityReport_TopFive(t *testing.T) {
	r := &complexity.ComplexityResult{EstimatedSubTasks: 1}
	for i := 0; i < 8; i++ {
		r.Tools = append(r.Tools, complexity.ToolIndicator{Category: fmt.Sprintf("tool%d", i), Confidence: 0.9})
		r.Actions = append(r.Actions, complexity.ActionPattern{Verb: fmt.Sprintf("verb%d", i), Occurrences: 1, Priority: 1})
	}

	out := FormatComplexityReport(r)
	require.Contains(t, out, "tool4")
	assert.NotContains(t, out, "tool5")
	require.Contains(t, out, "verb4")
	assert.NotContains(t, out, "verb5")
}

func TestFormatComplexityReport_FromAnalysis(t *testing.T) {
	out := FormatComplexityReport(complexity.Analyze(
		"First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results."))
	assert.Contains(t, out, "[api] https://api.example.com/v2/orders, -> fetch_api_data")
	assert.Contains(t, out, "[file] orders.csv -> download_and_parse")
	assert.Contains(t, out, "Requires decomposition: yes")
}
