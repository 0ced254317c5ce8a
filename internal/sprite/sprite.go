// Package sprite renders per-slot SVG sprite sheets of domain icons.
package sprite

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
)

const (
	// SymbolPrefix starts every generated symbol id.
	SymbolPrefix = "fav-"
	// DefaultMIMEType is used when an icon has no recorded type and its
	// bytes do not sniff as an image.
	DefaultMIMEType = "image/png"

	iconSize = "64"
)

// Symbol is one icon in a sprite sheet.
type Symbol struct {
	Domain   string
	MIMEType string
	Data     []byte
}

// SymbolID derives the symbol identifier for domain: lowercase, every run of
// non-alphanumeric characters collapsed to a single "-", prefixed with "fav-".
func SymbolID(domain string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(domain) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return SymbolPrefix + b.String()
}

// ResolvedMIMEType returns the recorded MIME type, else the sniffed image
// type of the data, else DefaultMIMEType.
func (s Symbol) ResolvedMIMEType() string {
	if t := strings.TrimSpace(s.MIMEType); t != "" {
		return t
	}
	detected, _, _ := strings.Cut(mimetype.Detect(s.Data).String(), ";")
	if strings.HasPrefix(detected, "image/") {
		return strings.TrimSpace(detected)
	}
	return DefaultMIMEType
}

// Build returns the sprite document for symbols as a node tree. Symbols
// without data are ignored and the rest are emitted in domain order. An empty
// input still produces a valid, symbol-less document.
func Build(symbols []Symbol) *html.Node {
	sorted := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if len(s.Data) > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Domain < sorted[j].Domain })

	svgNode := &html.Node{
		Type: html.ElementNode,
		Data: "svg",
		Attr: []html.Attribute{
			{Key: "xmlns", Val: "http://www.w3.org/2000/svg"},
			{Key: "xmlns:xlink", Val: "http://www.w3.org/1999/xlink"},
			{Key: "width", Val: "0"},
			{Key: "height", Val: "0"},
			{Key: "style", Val: "position:absolute"},
		},
	}

	for _, s := range sorted {
		symbolNode := &html.Node{
			Type: html.ElementNode,
			Data: "symbol",
			Attr: []html.Attribute{
				{Key: "id", Val: SymbolID(s.Domain)},
				{Key: "viewBox", Val: "0 0 " + iconSize + " " + iconSize},
			},
		}
		symbolNode.AppendChild(newline("    "))
		symbolNode.AppendChild(&html.Node{
			Type: html.ElementNode,
			Data: "image",
			Attr: []html.Attribute{
				{Key: "href", Val: dataURI(s.ResolvedMIMEType(), s.Data)},
				{Key: "width", Val: iconSize},
				{Key: "height", Val: iconSize},
				{Key: "preserveAspectRatio", Val: "xMidYMid meet"},
			},
		})
		symbolNode.AppendChild(newline("  "))

		svgNode.AppendChild(newline("  "))
		svgNode.AppendChild(symbolNode)
	}
	svgNode.AppendChild(newline(""))

	return svgNode
}

// Render builds and serialises the sprite document for symbols.
func Render(symbols []Symbol) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, Build(symbols)); err != nil {
		return nil, fmt.Errorf("render sprite: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func newline(indent string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n" + indent}
}
