package digest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a digest file split into its typed header and Markdown body.
type Document struct {
	Meta Frontmatter
	Keys []string // header keys in file order
	Body string
}

// ParseFile parses the digest file at path.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("digest: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a Markdown document. A header fenced by "---" lines at the very
// top is decoded into Meta; without one the whole input is the body.
func Parse(r io.Reader) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("digest: read: %w", err)
	}
	header, body, ok := splitFrontmatter(raw)
	doc := Document{Body: string(body)}
	if !ok {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(header, &root); err != nil {
		return Document{}, fmt.Errorf("digest: frontmatter: %w", err)
	}
	if len(root.Content) == 0 {
		return doc, nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return Document{}, errors.New("digest: frontmatter is not a mapping")
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		doc.Keys = append(doc.Keys, m.Content[i].Value)
	}
	if err := m.Decode(&doc.Meta); err != nil {
		return Document{}, fmt.Errorf("digest: frontmatter: %w", err)
	}
	return doc, nil
}

// splitFrontmatter cuts the leading "---" block off raw. An unterminated
// block runs to the end of the input.
func splitFrontmatter(raw []byte) (header, body []byte, ok bool) {
	first, rest, _ := bytes.Cut(raw, []byte("\n"))
	if string(bytes.TrimRight(first, "\r")) != "---" {
		return nil, raw, false
	}
	for off := 0; ; {
		line, _, found := bytes.Cut(rest[off:], []byte("\n"))
		if string(bytes.TrimSpace(line)) == "---" {
			end := off + len(line)
			if found {
				end++
			}
			return rest[:off], rest[end:], true
		}
		if !found {
			return rest, nil, true
		}
		off += len(line) + 1
	}
}
