package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResource(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want ResourceKind
	}{
		{"api segment", "https://example.com/api/users", ResourceAPI},
		{"versioned path", "https://api.example.com/v2/orders,", ResourceAPI},
		{"v1 without scheme", "service.local/v1/items", ResourceAPI},
		{"api wins over extension", "https://example.com/api/export.json", ResourceAPI},
		{"document url", "https://example.com/files/report.pdf", ResourceFile},
		{"bare file", "orders.csv", ResourceFile},
		{"file with query", "https://example.com/data.json?download=1", ResourceFile},
		{"trailing punctuation", "notes.txt.", ResourceFile},
		{"plain site", "https://example.com", ResourceWeb},
		{"www site", "www.example.com/pricing", ResourceWeb},
		{"unknown extension", "archive.tar.gz", ResourceUnknown},
		{"host only", "example.com", ResourceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResource(tt.ref))
		})
	}
}

func TestExtractResources(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, ExtractResources(""))
	})

	t.Run("url and file", func(t *testing.T) {
		refs := ExtractResources("First fetch https://api.example.com/v2/orders, then parse the orders.csv file.")
		byRef := map[string]ResourceReference{}
		for _, r := range refs {
			byRef[r.Reference] = r
		}

		api, ok := byRef["https://api.example.com/v2/orders,"]
		require.True(t, ok, "url should be captured up to the next whitespace")
		assert.Equal(t, ResourceAPI, api.Kind)
		assert.Equal(t, "fetch_api_data", api.SuggestedAction)

		file, ok := byRef["orders.csv"]
		require.True(t, ok)
		assert.Equal(t, ResourceFile, file.Kind)
		assert.Equal(t, "download_and_parse", file.SuggestedAction)

		for _, r := range refs {
			assert.True(t, r.RequiresExternalTool)
		}
	})

	t.Run("url stops at closing bracket", func(t *testing.T) {
		refs := ExtractResources("see (https://example.com/pricing) for details")
		require.NotEmpty(t, refs)
		assert.Equal(t, "https://example.com/pricing", refs[0].Reference)
		assert.Equal(t, ResourceWeb, refs[0].Kind)
		assert.Equal(t, "scrape_or_browse", refs[0].SuggestedAction)
	})

	t.Run("drive letter path", func(t *testing.T) {
		refs := ExtractResources(`open C:\Users\me\report.pdf now`)
		require.Len(t, refs, 1)
		assert.Equal(t, `C:\Users\me\report.pdf`, refs[0].Reference)
		assert.Equal(t, ResourceFile, refs[0].Kind)
	})

	t.Run("api path without host", func(t *testing.T) {
		refs := ExtractResources("call /api/users/list today")
		require.Len(t, refs, 1)
		assert.Equal(t, "/api/users/list", refs[0].Reference)
		assert.Equal(t, ResourceAPI, refs[0].Kind)
	})

	t.Run("overlapping families are not deduplicated", func(t *testing.T) {
		refs := ExtractResources("query https://example.com/api/users now")
		count := 0
		for _, r := range refs {
			if r.Reference == "https://example.com/api/users" {
				count++
			}
		}
		// once from the url family, once from the api family
		assert.Equal(t, 2, count)
		// plus the bare host from the file family
		assert.Len(t, refs, 3)
	})

	t.Run("unknown kind", func(t *testing.T) {
		refs := ExtractResources("edit README.md")
		require.Len(t, refs, 1)
		assert.Equal(t, ResourceUnknown, refs[0].Kind)
		assert.Equal(t, "fetch_content", refs[0].SuggestedAction)
	})
}
