package taxonomy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/historyview/internal/normalize"
)

// DomainOverride pins a domain to a primary tag and extra secondary tags.
//
// PrimarySet distinguishes an omitted "primary" key (defer to the stored
// category) from an explicit null or blank value (clear it). When PrimarySet
// is true, Primary is the replacement tag, "" meaning uncategorised.
type DomainOverride struct {
	Domain     string
	Primary    string
	PrimarySet bool
	Secondary  []string
}

// Overrides maps lowercase domains to their override entry.
type Overrides map[string]DomainOverride

// LoadOverrides reads the domain map at path. A missing or empty file is an
// empty set. Entries without a usable domain are skipped.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading domain map: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides is LoadOverrides on an in-memory document.
func ParseOverrides(data []byte) (Overrides, error) {
	root, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: domain map: %v", ErrConfiguration, err)
	}
	overrides := Overrides{}
	if root == nil || root.ShortTag() == "!!null" {
		return overrides, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: domain map must be a mapping with a 'domains' list", ErrConfiguration)
	}

	list := mappingValue(root, "domains")
	if list == nil || list.ShortTag() == "!!null" {
		return overrides, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: domain map 'domains' must be a list", ErrConfiguration)
	}

	for _, entry := range list.Content {
		o, ok := parseOverride(entry)
		if !ok {
			continue
		}
		overrides[o.Domain] = o
	}
	return overrides, nil
}

func parseOverride(entry *yaml.Node) (DomainOverride, bool) {
	if entry.Kind != yaml.MappingNode {
		return DomainOverride{}, false
	}
	rawDomain, ok := scalarString(mappingValue(entry, "domain"))
	if !ok {
		return DomainOverride{}, false
	}
	domain := normalize.Host(rawDomain)
	if domain == "" {
		return DomainOverride{}, false
	}

	o := DomainOverride{Domain: domain}
	if node := mappingValue(entry, "primary"); node != nil {
		raw, _ := scalarString(node)
		o.Primary = NormalizeTag(raw)
		o.PrimarySet = true
	}
	if seq := mappingValue(entry, "secondary"); seq != nil && seq.Kind == yaml.SequenceNode {
		seen := map[string]struct{}{}
		for _, item := range seq.Content {
			raw, _ := scalarString(item)
			tag := NormalizeTag(raw)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			o.Secondary = append(o.Secondary, tag)
		}
	}
	return o, true
}

// MergeOverrides folds updates into existing. A new primary replaces the old
// one only when the update sets it; secondary tags are unioned and sorted.
func MergeOverrides(existing, updates Overrides) Overrides {
	merged := make(Overrides, len(existing)+len(updates))
	for d, o := range existing {
		merged[d] = o
	}
	for d, u := range updates {
		cur, ok := merged[d]
		if !ok {
			u.Domain = d
			merged[d] = u
			continue
		}
		if u.PrimarySet {
			cur.Primary = u.Primary
			cur.PrimarySet = true
		}
		cur.Secondary = normalize.MergeLists(cur.Secondary, u.Secondary)
		merged[d] = cur
	}
	return merged
}

// WriteOverrides writes overrides to path sorted by domain. An unset primary
// is omitted; an explicitly cleared one is written as null.
func WriteOverrides(path string, overrides Overrides) error {
	data, err := MarshalOverrides(overrides)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing domain map: %w", err)
	}
	return nil
}

// UpdateOverrides merges updates into the file at path and rewrites it.
func UpdateOverrides(path string, updates Overrides) error {
	existing, err := LoadOverrides(path)
	if err != nil {
		return err
	}
	return WriteOverrides(path, MergeOverrides(existing, updates))
}

// MarshalOverrides renders overrides as a YAML document.
func MarshalOverrides(overrides Overrides) ([]byte, error) {
	domains := make([]string, 0, len(overrides))
	for d := range overrides {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, d := range domains {
		o := overrides[d]
		entry := &yaml.Node{Kind: yaml.MappingNode}
		entry.Content = append(entry.Content, strNode("domain"), strNode(d))
		if o.PrimarySet {
			value := strNode(o.Primary)
			if o.Primary == "" {
				value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
			}
			entry.Content = append(entry.Content, strNode("primary"), value)
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, tag := range o.Secondary {
			seq.Content = append(seq.Content, strNode(tag))
		}
		entry.Content = append(entry.Content, strNode("secondary"), seq)
		list.Content = append(list.Content, entry)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, strNode("domains"), list)

	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshaling domain map: %w", err)
	}
	return data, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
