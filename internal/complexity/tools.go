package complexity

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	firstHitFactor      = 0.2
	repeatHitFactor     = 0.1
	reinforceFactor     = 0.5
	emailIncrement      = 0.8
	fileExtIncrement    = 0.7
	codeIncrement       = 0.8
	calendarIncrement   = 0.6
	calculatorIncrement = 0.7
	minDateReferences   = 2
)

var (
	emailPattern    = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	dataFilePattern = regexp.MustCompile(`\.(?:csv|json|xml|xlsx?|pdf|txt|docx?|tsv|parquet)\b`)
	sqlPattern      = regexp.MustCompile(`\b(?:SELECT|INSERT|UPDATE|DELETE)\b[^;]*?\bFROM\b`)
	datePattern     = regexp.MustCompile(`\b(?:today|tomorrow|yesterday|tonight|` +
		`monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
		`january|february|march|april|may|june|july|august|september|october|november|december|` +
		`next week|next month|this week|this month|end of day|eod)\b|` +
		`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b|\b\d{1,2}(?::\d{2})?\s?(?:am|pm)\b`)
	arithmeticPattern = regexp.MustCompile(`\b(?:calculate|calculation|sum|total|average|mean|median|` +
		`percent|percentage|multiply|divide|subtract|plus|minus|ratio)\b`)
)

const codeFence = "```"

// toolAccumulator folds matches into a call-local set of indicators,
// remembering first-detection order for stable tie breaking.
type toolAccumulator struct {
	byCategory map[string]*ToolIndicator
	order      []string
}

func newToolAccumulator() *toolAccumulator {
	return &toolAccumulator{byCategory: make(map[string]*ToolIndicator)}
}

// keywordHit applies the weighted keyword formula for count matches
func (a *toolAccumulator) keywordHit(category string, count int, matched []string) {
	weight := toolCategories[category].weight
	if ind, ok := a.byCategory[category]; ok {
		ind.Confidence = clampUnit(ind.Confidence + float64(count)*repeatHitFactor*weight)
		ind.Keywords = append(ind.Keywords, matched...)
		return
	}
	ind := a.add(category, clampUnit(float64(count)*firstHitFactor*weight))
	ind.Keywords = append(ind.Keywords, matched...)
}

// patternHit applies a fixed increment, halved when the category already exists
func (a *toolAccumulator) patternHit(category string, increment float64) {
	if ind, ok := a.byCategory[category]; ok {
		ind.Confidence = clampUnit(ind.Confidence + increment*reinforceFactor)
		return
	}
	a.add(category, clampUnit(increment))
}

func (a *toolAccumulator) add(category string, confidence float64) *ToolIndicator {
	ind := &ToolIndicator{
		Category:       category,
		Confidence:     confidence,
		SuggestedTools: SuggestedTools(category),
		Keywords:       []string{},
	}
	a.byCategory[category] = ind
	a.order = append(a.order, category)
	return ind
}

func (a *toolAccumulator) sorted() []ToolIndicator {
	out := make([]ToolIndicator, 0, len(a.order))
	for _, c := range a.order {
		out = append(out, *a.byCategory[c])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// DetectTools infers the tool categories a goal needs, ranked by confidence.
// Keyword hits are matched case-insensitively; the SQL detector looks at the
// original casing.
func DetectTools(text string) []ToolIndicator {
	lower := strings.ToLower(text)
	acc := newToolAccumulator()

	for _, rule := range keywordRules {
		matches := rule.pattern.FindAllString(lower, -1)
		if len(matches) == 0 {
			continue
		}
		acc.keywordHit(rule.category, len(matches), matches)
	}

	if emailPattern.MatchString(lower) {
		acc.patternHit(CategoryEmail, emailIncrement)
	}
	if dataFilePattern.MatchString(lower) {
		acc.patternHit(CategoryFileParser, fileExtIncrement)
	}
	if strings.Contains(text, codeFence) || sqlPattern.MatchString(text) {
		acc.patternHit(CategoryCodeExecutor, codeIncrement)
	}
	if len(datePattern.FindAllStringIndex(lower, -1)) >= minDateReferences {
		acc.patternHit(CategoryCalendar, calendarIncrement)
	}
	if arithmeticPattern.MatchString(lower) {
		acc.patternHit(CategoryCalculator, calculatorIncrement)
	}

	return acc.sorted()
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(v, 1.0))
}
