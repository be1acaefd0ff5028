package complexity

import (
	"regexp"
	"strings"
)

var (
	webURLPattern   = regexp.MustCompile(`(?:https?://|www\.)[^\s)\]}>"'` + "`" + `]+`)
	filePathPattern = regexp.MustCompile(`(?:[a-zA-Z]:[\\/])?(?:[\w.\-]+[\\/])*[\w\-]+\.[a-zA-Z]{2,4}\b`)
	apiPathPattern  = regexp.MustCompile(`[^\s)\]}>"'(\[{<]*/api/[^\s)\]}>"'(\[{<]*`)
	extensionSuffix = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)
)

var apiMarkers = []string{"/api/", "/v1/", "/v2/"}

var fileExtensions = map[string]bool{
	"json": true,
	"xml":  true,
	"csv":  true,
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"txt":  true,
}

var suggestedActions = map[ResourceKind]string{
	ResourceAPI:     "fetch_api_data",
	ResourceFile:    "download_and_parse",
	ResourceWeb:     "scrape_or_browse",
	ResourceUnknown: "fetch_content",
}

// ExtractResources finds URL, file path and API path references in text.
// Each pattern family runs independently, so a substring matched by more than
// one family is reported once per family.
func ExtractResources(text string) []ResourceReference {
	var refs []ResourceReference
	for _, p := range []*regexp.Regexp{webURLPattern, filePathPattern, apiPathPattern} {
		for _, m := range p.FindAllString(text, -1) {
			kind := ClassifyResource(m)
			refs = append(refs, ResourceReference{
				Reference:            m,
				Kind:                 kind,
				RequiresExternalTool: true,
				SuggestedAction:      suggestedActions[kind],
			})
		}
	}
	return refs
}

// ClassifyResource assigns a kind to a reference. API markers win over file
// extensions, which win over the web prefix.
func ClassifyResource(ref string) ResourceKind {
	lower := strings.ToLower(ref)
	for _, marker := range apiMarkers {
		if strings.Contains(lower, marker) {
			return ResourceAPI
		}
	}
	if fileExtensions[trailingExtension(lower)] {
		return ResourceFile
	}
	if strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "www") {
		return ResourceWeb
	}
	return ResourceUnknown
}

// trailingExtension returns the lower-cased extension of ref, ignoring a
// query string, fragment and trailing sentence punctuation.
func trailingExtension(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, ".,;:!")
	m := extensionSuffix.FindStringSubmatch(ref)
	if len(m) != 2 {
		return ""
	}
	return strings.ToLower(m[1])
}
