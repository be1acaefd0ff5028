package complexity

import (
	"math"
	"sort"
)

// DetectActions finds action verbs in text and ranks them by priority.
// A verb registered under several categories yields one pattern per category.
func DetectActions(text string) []ActionPattern {
	var patterns []ActionPattern
	for _, rule := range verbRules {
		count := len(rule.pattern.FindAllStringIndex(text, -1))
		if count == 0 {
			continue
		}
		patterns = append(patterns, ActionPattern{
			Verb:        rule.verb,
			Occurrences: count,
			Category:    rule.category,
			Priority:    actionPriority(count, rule.category),
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Priority > patterns[j].Priority
	})
	return patterns
}

func actionPriority(count int, category ActionCategory) int {
	return int(math.Ceil(float64(count) * actionClasses[category].multiplier))
}
