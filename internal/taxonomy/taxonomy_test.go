package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "", NormalizeTag(""))
	assert.Equal(t, "", NormalizeTag("   "))
	assert.Equal(t, "", NormalizeTag("#"))
	assert.Equal(t, "#news", NormalizeTag("  #News "))
	assert.Equal(t, "#tech", NormalizeTag("Tech"))
	assert.Equal(t, "#tech", NormalizeTag("##tech"))

	for _, raw := range []string{"News", "#learning", " Tutorials "} {
		once := NormalizeTag(raw)
		assert.Equal(t, once, NormalizeTag(once), "idempotent for %q", raw)
	}
}

func TestLoadCategories(t *testing.T) {
	path := writeFile(t, "categories.yaml", `
categories:
  - tag: news
    label: News
    type: primary
  - tag: "#Learning"
    label: Learning
    type: Primary
  - tag: tutorials
  - label: no tag here
  - just-a-string
`)

	cats, err := LoadCategories(path)
	require.NoError(t, err)
	require.Len(t, cats, 3)

	assert.Equal(t, CategoryDef{Tag: "#news", Label: "News", Primary: true}, cats["#news"])
	assert.True(t, cats["#learning"].Primary)
	assert.False(t, cats["#tutorials"].Primary)
	assert.Equal(t, "tutorials", cats["#tutorials"].Label)

	assert.Equal(t, "News", cats.Label("#news"))
	assert.Equal(t, "unknown", cats.Label("#unknown"))
}

func TestLoadCategories_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty document", ""},
		{"not a mapping", "- a\n- b\n"},
		{"categories not a list", "categories: not-a-list"},
		{"no primary", "categories:\n  - tag: misc\n    label: Misc\n"},
		{"invalid yaml", "categories: [unclosed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "categories.yaml", tc.content)
			_, err := LoadCategories(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoadCategories_MissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingResource))
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, "domain-map.yaml", `
domains:
  - domain: Example.COM
    primary: '#News'
    secondary:
      - '#Tech'
      - ' other '
      - null
      - tech
  - domain: ''
    primary: '#ignore'
  - domain: cleared.test
    primary: null
  - domain: deferred.test
    secondary: [extra]
  - not-a-mapping
`)

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 3)

	ex := overrides["example.com"]
	assert.True(t, ex.PrimarySet)
	assert.Equal(t, "#news", ex.Primary)
	assert.Equal(t, []string{"#tech", "#other"}, ex.Secondary)

	cleared := overrides["cleared.test"]
	assert.True(t, cleared.PrimarySet)
	assert.Empty(t, cleared.Primary)

	deferred := overrides["deferred.test"]
	assert.False(t, deferred.PrimarySet)
	assert.Equal(t, []string{"#extra"}, deferred.Secondary)
}

func TestLoadOverrides_MissingOrEmpty(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, overrides)

	overrides, err = LoadOverrides(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, overrides)

	overrides, err = LoadOverrides(writeFile(t, "nodomains.yaml", "other: 1\n"))
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadOverrides_Malformed(t *testing.T) {
	_, err := LoadOverrides(writeFile(t, "list.yaml", "- domain: a.com\n"))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = LoadOverrides(writeFile(t, "scalar.yaml", "domains: a.com\n"))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestWriteOverrides_SortsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domain-map.yaml")
	in := Overrides{
		"b.com":       {Domain: "b.com", Primary: "#news", PrimarySet: true, Secondary: []string{"#tech"}},
		"a.com":       {Domain: "a.com", Primary: "#other", PrimarySet: true},
		"cleared.com": {Domain: "cleared.com", PrimarySet: true},
		"keep.com":    {Domain: "keep.com", Secondary: []string{"#misc"}},
	}
	require.NoError(t, WriteOverrides(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var payload struct {
		Domains []map[string]any `yaml:"domains"`
	}
	require.NoError(t, yaml.Unmarshal(data, &payload))
	require.Len(t, payload.Domains, 4)
	assert.Equal(t, "a.com", payload.Domains[0]["domain"])
	assert.Equal(t, "b.com", payload.Domains[1]["domain"])
	assert.Contains(t, payload.Domains[2], "primary")
	assert.Nil(t, payload.Domains[2]["primary"])
	assert.NotContains(t, payload.Domains[3], "primary")

	out, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, in["b.com"], out["b.com"])
	assert.Equal(t, in["cleared.com"].PrimarySet, out["cleared.com"].PrimarySet)
	assert.False(t, out["keep.com"].PrimarySet)
}

func TestUpdateOverrides_MergesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domain-map.yaml")
	require.NoError(t, WriteOverrides(path, Overrides{
		"a.com": {Domain: "a.com", Primary: "#news", PrimarySet: true, Secondary: []string{"#tech"}},
	}))

	require.NoError(t, UpdateOverrides(path, Overrides{
		"a.com": {Domain: "a.com", Secondary: []string{"#world"}},
		"b.com": {Domain: "b.com", Primary: "#other", PrimarySet: true, Secondary: []string{"#misc"}},
	}))

	out, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "#news", out["a.com"].Primary)
	assert.Equal(t, []string{"#tech", "#world"}, out["a.com"].Secondary)
	assert.Equal(t, "#other", out["b.com"].Primary)
	assert.Equal(t, []string{"#misc"}, out["b.com"].Secondary)
}
