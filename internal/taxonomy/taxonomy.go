// Package taxonomy loads the category definitions and the curated
// domain→category overrides that drive how visited domains are grouped.
//
// Both files are YAML. They are parsed as yaml.Node trees so that shape
// problems are reported once, here, and only typed values leave the package.
package taxonomy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/historyview/internal/normalize"
)

// TagMarker prefixes every canonical tag.
const TagMarker = "#"

// KindPrimary is the category type that makes a tag usable as a primary tag.
const KindPrimary = "primary"

var (
	// ErrConfiguration marks a malformed taxonomy or override resource.
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingResource marks a taxonomy file that does not exist.
	ErrMissingResource = errors.New("missing resource")
)

// CategoryDef is one entry of the taxonomy.
type CategoryDef struct {
	Tag     string
	Label   string
	Primary bool
}

// Categories maps canonical tags to their definitions.
type Categories map[string]CategoryDef

// Label returns the human label for tag, falling back to the tag text
// without its marker.
func (c Categories) Label(tag string) string {
	if def, ok := c[tag]; ok && def.Label != "" {
		return def.Label
	}
	return strings.TrimLeft(tag, TagMarker)
}

// NormalizeTag trims and lowercases raw and ensures it carries exactly one
// leading marker. Blank input returns "", meaning no tag. The function is
// idempotent.
func NormalizeTag(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.TrimSpace(strings.TrimLeft(cleaned, TagMarker))
	if cleaned == "" {
		return ""
	}
	return TagMarker + cleaned
}

// LoadCategories reads the taxonomy file at path. The document must be a
// mapping with a "categories" list, and at least one entry must be marked
// primary. Entries that are not mappings or lack a tag are skipped.
func LoadCategories(path string) (Categories, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: categories file not found: %s", ErrMissingResource, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading categories file: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories is LoadCategories on an in-memory document.
func ParseCategories(data []byte) (Categories, error) {
	root, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: categories.yaml: %v", ErrConfiguration, err)
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: categories.yaml must contain a top-level 'categories' list", ErrConfiguration)
	}
	list := mappingValue(root, "categories")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: categories.yaml must contain a list under 'categories'", ErrConfiguration)
	}

	categories := Categories{}
	hasPrimary := false
	for _, entry := range list.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		rawTag, _ := scalarString(mappingValue(entry, "tag"))
		tag := NormalizeTag(rawTag)
		if tag == "" {
			continue
		}
		label, ok := scalarString(mappingValue(entry, "label"))
		if ok {
			label = normalize.CleanText(label)
		}
		if label == "" {
			label = strings.TrimLeft(tag, TagMarker)
		}
		kind, _ := scalarString(mappingValue(entry, "type"))
		def := CategoryDef{
			Tag:     tag,
			Label:   label,
			Primary: strings.EqualFold(strings.TrimSpace(kind), KindPrimary),
		}
		hasPrimary = hasPrimary || def.Primary
		categories[tag] = def
	}

	if !hasPrimary {
		return nil, fmt.Errorf("%w: categories.yaml must define at least one primary category", ErrConfiguration)
	}
	return categories, nil
}

// parseDocument returns the top-level node of a YAML document, or nil for
// an empty document.
func parseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// scalarString returns the trimmed text of a non-null scalar node.
func scalarString(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return "", false
	}
	s := strings.TrimSpace(n.Value)
	return s, s != ""
}
