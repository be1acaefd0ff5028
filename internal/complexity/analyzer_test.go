package complexity

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleGoals = []string{
	"",
	"What is 2+2?",
	"Search the web for quarterly sales data and email me a summary.",
	"First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results.",
	"Run this query and report back:\n```\nSELECT name, email FROM users WHERE active = 1\n```",
	"Schedule a meeting on Monday at 3pm, then notify the team on Slack and translate the agenda.",
	strings.Repeat("?", 10000),
	strings.Repeat("then fetch data and email bob@example.com. ", 200),
}

func TestAnalyze_Scenarios(t *testing.T) {
	t.Run("search and email", func(t *testing.T) {
		r := Analyze("Search the web for quarterly sales data and email me a summary.")

		cats := toolsByCategory(r.Tools)
		assert.Contains(t, cats, "web_search")
		assert.Contains(t, cats, CategoryEmail)

		classes := map[ActionCategory]bool{}
		for _, a := range r.Actions {
			classes[a.Category] = true
		}
		assert.GreaterOrEqual(t, len(r.Actions), 2)
		assert.True(t, classes[ActionRetrieval])
		assert.True(t, classes[ActionCommunication])

		assert.True(t, r.IsComplex)
		assert.GreaterOrEqual(t, r.Confidence, ComplexThreshold)
	})

	t.Run("trivial question", func(t *testing.T) {
		r := Analyze("What is 2+2?")
		assert.Equal(t, 1, r.Factors.Questions)
		assert.Equal(t, 0, r.Factors.SequentialTasks)
		assert.False(t, r.IsComplex)
		assert.False(t, r.RequiresDecomposition)
		assert.Equal(t, 1, r.EstimatedSubTasks)
	})

	t.Run("two questions", func(t *testing.T) {
		// only the second question mark adds a task
		r := Analyze("Why? How?")
		assert.Equal(t, 2, r.Factors.Questions)
		assert.Empty(t, r.Tools)
		assert.Empty(t, r.Actions)
		assert.Equal(t, 2, r.EstimatedSubTasks)
		assert.False(t, r.RequiresDecomposition)
	})

	t.Run("sequential pipeline", func(t *testing.T) {
		r := Analyze("First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results.")

		kinds := map[ResourceKind]int{}
		for _, res := range r.Resources {
			kinds[res.Kind]++
		}
		assert.GreaterOrEqual(t, len(r.Resources), 2)
		assert.GreaterOrEqual(t, kinds[ResourceAPI], 1)
		assert.GreaterOrEqual(t, kinds[ResourceFile], 1)
		assert.GreaterOrEqual(t, r.Factors.SequentialTasks, 2)
		assert.True(t, r.RequiresDecomposition)
		assert.Greater(t, r.EstimatedSubTasks, DecompositionSubTasks)
	})

	t.Run("fenced sql", func(t *testing.T) {
		r := Analyze("Run this query and report back:\n```\nSELECT name, email FROM users WHERE active = 1\n```")
		code, ok := toolsByCategory(r.Tools)[CategoryCodeExecutor]
		require.True(t, ok)
		assert.GreaterOrEqual(t, code.Confidence, 0.8)
	})
}

func TestAnalyze_EmptyInput(t *testing.T) {
	r := Analyze("")
	require.NotNil(t, r)
	assert.False(t, r.IsComplex)
	assert.False(t, r.RequiresDecomposition)
	assert.Equal(t, 1, r.EstimatedSubTasks)
	assert.Equal(t, 0.0, r.Confidence)
	assert.NotNil(t, r.Tools)
	assert.NotNil(t, r.Resources)
	assert.NotNil(t, r.Actions)
	assert.Empty(t, r.Tools)
	assert.Empty(t, r.Resources)
	assert.Empty(t, r.Actions)
	assert.Equal(t, ComplexityFactors{}, r.Factors)
}

func TestAnalyze_Bounds(t *testing.T) {
	for _, goal := range sampleGoals {
		r := Analyze(goal)
		assert.GreaterOrEqual(t, r.EstimatedSubTasks, MinSubTasks)
		assert.LessOrEqual(t, r.EstimatedSubTasks, MaxSubTasks)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		for _, tool := range r.Tools {
			assert.GreaterOrEqual(t, tool.Confidence, 0.0)
			assert.LessOrEqual(t, tool.Confidence, 1.0)
		}
	}

	assert.Equal(t, MaxSubTasks, Analyze(strings.Repeat("?", 10000)).EstimatedSubTasks)
}

func TestAnalyze_DecisionConsistency(t *testing.T) {
	for _, goal := range sampleGoals {
		r := Analyze(goal)
		assert.Equal(t, r.Confidence >= ComplexThreshold, r.IsComplex)
		assert.Equal(t, r.EstimatedSubTasks > DecompositionSubTasks || r.Confidence >= DecompositionThreshold,
			r.RequiresDecomposition)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	for _, goal := range sampleGoals {
		assert.Equal(t, Analyze(goal), Analyze(goal))
	}
}

func TestAnalyze_UniqueToolCategories(t *testing.T) {
	for _, goal := range sampleGoals {
		r := Analyze(goal)
		assert.Len(t, toolsByCategory(r.Tools), len(r.Tools))
	}
}

func TestAnalyze_MonotonicSubTasks(t *testing.T) {
	suffix := " Then translate the report and send it by email."
	for _, goal := range sampleGoals {
		before := Analyze(goal).EstimatedSubTasks
		after := Analyze(goal + suffix).EstimatedSubTasks
		assert.GreaterOrEqual(t, after, before, "goal %.40q", goal)
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	want := make([]*ComplexityResult, len(sampleGoals))
	for i, goal := range sampleGoals {
		want[i] = Analyze(goal)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, goal := range sampleGoals {
				got := Analyze(goal)
				if got.Confidence != want[i].Confidence || len(got.Tools) != len(want[i].Tools) {
					errs <- goal
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for goal := range errs {
		t.Errorf("concurrent result diverged for %.40q", goal)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"", ModeAdvanced},
		{"advanced", ModeAdvanced},
		{" Basic ", ModeBasic},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			a, err := New(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		a, err := New("quantum")
		assert.Nil(t, a)
		assert.True(t, errors.Is(err, ErrUnknownAnalyzer))
	})

	assert.Equal(t, []string{ModeAdvanced, ModeBasic}, Modes())
}

func TestBasicAnalyzer(t *testing.T) {
	b := NewBasicAnalyzer()

	t.Run("empty", func(t *testing.T) {
		r := b.Analyze("")
		assert.False(t, r.IsComplex)
		assert.Equal(t, 1, r.EstimatedSubTasks)
		assert.Equal(t, 0.0, r.Confidence)
		assert.NotNil(t, r.Tools)
	})

	t.Run("trivial question", func(t *testing.T) {
		r := b.Analyze("What is 2+2?")
		assert.False(t, r.IsComplex)
		assert.False(t, r.RequiresDecomposition)
		assert.Equal(t, 0.0, r.Confidence)
	})

	t.Run("three signals", func(t *testing.T) {
		// sequential words, several actions and external resources; no second question
		r := b.Analyze("First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results.")
		assert.InDelta(t, 0.75, r.Confidence, 1e-9)
		assert.True(t, r.IsComplex)
		assert.True(t, r.RequiresDecomposition)
		assert.Equal(t, 4, r.EstimatedSubTasks)
		assert.Empty(t, r.Tools)
	})

	t.Run("satisfies analyzer", func(t *testing.T) {
		var a Analyzer = b
		assert.Equal(t, ModeBasic, a.Name())
	})
}
