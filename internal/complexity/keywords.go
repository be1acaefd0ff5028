package complexity

import (
	"regexp"
)

// toolCategory carries the weight applied to keyword hits and the tools
// suggested to the planner when the category is detected.
type toolCategory struct {
	weight         float64
	suggestedTools []string
}

// keywordRule maps one lexical trigger to a tool category
type keywordRule struct {
	keyword  string
	category string
	pattern  *regexp.Regexp
}

// actionClass describes a semantic action type
type actionClass struct {
	multiplier       float64
	requiresExternal bool
}

// verbRule maps one action verb to an action category
type verbRule struct {
	verb     string
	category ActionCategory
	pattern  *regexp.Regexp
}

// Category names produced by the secondary pattern detectors
const (
	CategoryEmail        = "email"
	CategoryFileParser   = "file_parser"
	CategoryCodeExecutor = "code_executor"
	CategoryCalendar     = "calendar"
	CategoryCalculator   = "calculator"
)

var toolCategories = map[string]toolCategory{
	"web_search":         {weight: 2.5, suggestedTools: []string{"web_search", "search_engine"}},
	"web_scraper":        {weight: 2.5, suggestedTools: []string{"web_scraper", "html_parser"}},
	CategoryEmail:        {weight: 3.0, suggestedTools: []string{"email_sender", "smtp_client"}},
	"data_analysis":      {weight: 2.0, suggestedTools: []string{"data_analyzer", "chart_generator"}},
	"summarizer":         {weight: 1.5, suggestedTools: []string{"text_summarizer"}},
	CategoryFileParser:   {weight: 2.0, suggestedTools: []string{"file_reader", "csv_parser", "pdf_parser"}},
	CategoryCodeExecutor: {weight: 2.5, suggestedTools: []string{"code_interpreter", "sql_runner"}},
	"database":           {weight: 2.5, suggestedTools: []string{"sql_client", "db_connector"}},
	"api_client":         {weight: 2.5, suggestedTools: []string{"http_client", "rest_client"}},
	CategoryCalendar:     {weight: 2.0, suggestedTools: []string{"calendar_api", "scheduler"}},
	CategoryCalculator:   {weight: 1.5, suggestedTools: []string{"calculator", "math_engine"}},
	"notification":       {weight: 2.0, suggestedTools: []string{"notifier", "slack_client"}},
	"image_processor":    {weight: 2.0, suggestedTools: []string{"image_processor", "vision_model"}},
	"translator":         {weight: 2.0, suggestedTools: []string{"translator"}},
}

// Order matters: within a category the first matching keyword creates the
// entry and later ones reinforce it at the discounted rate.
var toolKeywordTable = []struct{ keyword, category string }{
	{"search", "web_search"},
	{"google", "web_search"},
	{"web", "web_search"},
	{"internet", "web_search"},
	{"online", "web_search"},
	{"look up", "web_search"},
	{"lookup", "web_search"},
	{"browse", "web_search"},
	{"news", "web_search"},
	{"latest", "web_search"},

	{"scrape", "web_scraper"},
	{"scraping", "web_scraper"},
	{"crawl", "web_scraper"},
	{"website", "web_scraper"},
	{"webpage", "web_scraper"},
	{"web page", "web_scraper"},
	{"html", "web_scraper"},

	{"email", CategoryEmail},
	{"e-mail", CategoryEmail},
	{"emails", CategoryEmail},
	{"mail", CategoryEmail},
	{"inbox", CategoryEmail},
	{"gmail", CategoryEmail},
	{"outlook", CategoryEmail},
	{"newsletter", CategoryEmail},

	{"data", "data_analysis"},
	{"dataset", "data_analysis"},
	{"statistics", "data_analysis"},
	{"sales", "data_analysis"},
	{"revenue", "data_analysis"},
	{"metrics", "data_analysis"},
	{"trends", "data_analysis"},
	{"quarterly", "data_analysis"},
	{"chart", "data_analysis"},
	{"graph", "data_analysis"},

	{"summary", "summarizer"},
	{"summarize", "summarizer"},
	{"summarise", "summarizer"},
	{"tldr", "summarizer"},
	{"digest", "summarizer"},
	{"recap", "summarizer"},
	{"overview", "summarizer"},

	{"file", CategoryFileParser},
	{"files", CategoryFileParser},
	{"csv", CategoryFileParser},
	{"pdf", CategoryFileParser},
	{"excel", CategoryFileParser},
	{"spreadsheet", CategoryFileParser},
	{"document", CategoryFileParser},
	{"attachment", CategoryFileParser},

	{"code", CategoryCodeExecutor},
	{"script", CategoryCodeExecutor},
	{"python", CategoryCodeExecutor},
	{"javascript", CategoryCodeExecutor},
	{"sql", CategoryCodeExecutor},
	{"program", CategoryCodeExecutor},

	{"database", "database"},
	{"db", "database"},
	{"table", "database"},
	{"records", "database"},
	{"postgres", "database"},
	{"mysql", "database"},
	{"mongodb", "database"},

	{"api", "api_client"},
	{"endpoint", "api_client"},
	{"rest", "api_client"},
	{"webhook", "api_client"},
	{"graphql", "api_client"},

	{"calendar", CategoryCalendar},
	{"meeting", CategoryCalendar},
	{"schedule", CategoryCalendar},
	{"appointment", CategoryCalendar},
	{"deadline", CategoryCalendar},
	{"remind", CategoryCalendar},
	{"reminder", CategoryCalendar},

	{"math", CategoryCalculator},
	{"percentage", CategoryCalculator},
	{"average", CategoryCalculator},

	{"notify", "notification"},
	{"notification", "notification"},
	{"alert", "notification"},
	{"slack", "notification"},
	{"sms", "notification"},

	{"image", "image_processor"},
	{"images", "image_processor"},
	{"photo", "image_processor"},
	{"picture", "image_processor"},
	{"screenshot", "image_processor"},
	{"resize", "image_processor"},

	{"translate", "translator"},
	{"translation", "translator"},
}

var actionClasses = map[ActionCategory]actionClass{
	ActionRetrieval:     {multiplier: 1.5, requiresExternal: true},
	ActionCreation:      {multiplier: 1.5, requiresExternal: false},
	ActionCommunication: {multiplier: 2.0, requiresExternal: true},
	ActionAnalysis:      {multiplier: 2.0, requiresExternal: false},
	ActionModification:  {multiplier: 1.5, requiresExternal: false},
	ActionDeletion:      {multiplier: 1.0, requiresExternal: false},
	ActionExecution:     {multiplier: 2.5, requiresExternal: true},
}

var actionVerbTable = []struct {
	verb     string
	category ActionCategory
}{
	{"search", ActionRetrieval},
	{"find", ActionRetrieval},
	{"fetch", ActionRetrieval},
	{"get", ActionRetrieval},
	{"retrieve", ActionRetrieval},
	{"download", ActionRetrieval},
	{"lookup", ActionRetrieval},
	{"browse", ActionRetrieval},
	{"scrape", ActionRetrieval},
	{"crawl", ActionRetrieval},
	{"collect", ActionRetrieval},
	{"gather", ActionRetrieval},
	{"read", ActionRetrieval},

	{"create", ActionCreation},
	{"generate", ActionCreation},
	{"write", ActionCreation},
	{"build", ActionCreation},
	{"make", ActionCreation},
	{"draft", ActionCreation},
	{"compose", ActionCreation},
	{"produce", ActionCreation},
	{"design", ActionCreation},
	{"prepare", ActionCreation},

	{"send", ActionCommunication},
	{"email", ActionCommunication},
	{"notify", ActionCommunication},
	{"share", ActionCommunication},
	{"post", ActionCommunication},
	{"publish", ActionCommunication},
	{"reply", ActionCommunication},
	{"forward", ActionCommunication},
	{"tell", ActionCommunication},

	{"analyze", ActionAnalysis},
	{"analyse", ActionAnalysis},
	{"compare", ActionAnalysis},
	{"evaluate", ActionAnalysis},
	{"review", ActionAnalysis},
	{"summarize", ActionAnalysis},
	{"summarise", ActionAnalysis},
	{"assess", ActionAnalysis},
	{"calculate", ActionAnalysis},
	{"compute", ActionAnalysis},
	{"examine", ActionAnalysis},
	{"research", ActionAnalysis},

	{"update", ActionModification},
	{"edit", ActionModification},
	{"modify", ActionModification},
	{"change", ActionModification},
	{"transform", ActionModification},
	{"convert", ActionModification},
	{"translate", ActionModification},
	{"format", ActionModification},
	{"fix", ActionModification},
	{"rename", ActionModification},
	{"merge", ActionModification},
	{"parse", ActionModification},

	{"delete", ActionDeletion},
	{"remove", ActionDeletion},
	{"clear", ActionDeletion},
	{"purge", ActionDeletion},
	{"drop", ActionDeletion},
	{"erase", ActionDeletion},
	{"cancel", ActionDeletion},

	{"run", ActionExecution},
	{"execute", ActionExecution},
	{"deploy", ActionExecution},
	{"install", ActionExecution},
	{"launch", ActionExecution},
	{"start", ActionExecution},
	{"automate", ActionExecution},
	{"test", ActionExecution},
}

var sequentialWords = []string{
	"then", "after", "next", "following", "subsequently",
	"first", "second", "third", "finally", "lastly",
	"before", "once", "when", "after that",
}

var dataProcessingWords = []string{
	"analyze", "process", "transform", "filter", "sort",
	"aggregate", "summarize", "calculate", "compute", "parse",
}

// Compiled once at package init; read-only afterwards.
var (
	keywordRules       []keywordRule
	verbRules          []verbRule
	sequentialPatterns []*regexp.Regexp
	dataPatterns       []*regexp.Regexp
)

func init() {
	keywordRules = make([]keywordRule, 0, len(toolKeywordTable))
	for _, k := range toolKeywordTable {
		keywordRules = append(keywordRules, keywordRule{
			keyword:  k.keyword,
			category: k.category,
			pattern:  wordPattern(k.keyword),
		})
	}

	verbRules = make([]verbRule, 0, len(actionVerbTable))
	for _, v := range actionVerbTable {
		verbRules = append(verbRules, verbRule{
			verb:     v.verb,
			category: v.category,
			pattern:  wordPattern(v.verb),
		})
	}

	sequentialPatterns = compileWords(sequentialWords)
	dataPatterns = compileWords(dataProcessingWords)
}

// wordPattern builds a case-insensitive whole-word matcher for a literal
func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, wordPattern(w))
	}
	return out
}

// countWords sums whole-word hits of every pattern in text
func countWords(text string, patterns []*regexp.Regexp) int {
	total := 0
	for _, p := range patterns {
		total += len(p.FindAllStringIndex(text, -1))
	}
	return total
}

// SuggestedTools returns the tools suggested for a category, or nil when the
// category is unknown. The returned slice is a copy.
func SuggestedTools(category string) []string {
	c, ok := toolCategories[category]
	if !ok {
		return nil
	}
	return append([]string(nil), c.suggestedTools...)
}

// RequiresExternal reports whether actions of the category usually touch an
// external resource.
func RequiresExternal(category ActionCategory) bool {
	return actionClasses[category].requiresExternal
}
