package digest

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseWithFrontmatter(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "post.md")
	content := "" +
		"---\n" +
		"title: \"ProductHot Digest 2025-07-20\"\n" +
		"slug: producthot-20250720\n" +
		"datetime: 2025-07-20 08:30\n" +
		"summary: |-\n" +
		"  Agents everywhere.\n" +
		"---\n\n" +
		"## 新产品发布\n\n### [Barrier](https://www.producthunt.com/posts/barrier)\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if want := []string{"title", "slug", "datetime", "summary"}; !slices.Equal(doc.Keys, want) {
		t.Errorf("keys = %v, want %v", doc.Keys, want)
	}
	if want := "\n## 新产品发布\n\n### [Barrier](https://www.producthunt.com/posts/barrier)\n"; doc.Body != want {
		t.Errorf("body mismatch.\nwant: %q\n got: %q", want, doc.Body)
	}
	m := doc.Meta
	if m.Title != "ProductHot Digest 2025-07-20" || m.Slug != "producthot-20250720" || m.Datetime != "2025-07-20 08:30" || m.Summary != "Agents everywhere." {
		t.Errorf("unexpected meta: %+v", m)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	body := "# Hello\n\n---\nNo frontmatter here.\n"
	doc, err := Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Keys) != 0 || doc.Meta != (Frontmatter{}) {
		t.Fatalf("expected empty frontmatter, got: %+v %v", doc.Meta, doc.Keys)
	}
	if doc.Body != body {
		t.Errorf("body mismatch.\nwant: %q\n got: %q", body, doc.Body)
	}
}

func TestParseUnterminatedFrontmatter(t *testing.T) {
	doc, err := Parse(strings.NewReader("---\r\nslug: a\r\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if doc.Meta.Slug != "a" || doc.Body != "" {
		t.Errorf("unexpected doc: %+v", doc)
	}
}

func TestParseBadFrontmatter(t *testing.T) {
	for _, in := range []string{
		"---\ntitle: [unclosed\n---\nbody\n",
		"---\n- a\n- b\n---\nbody\n",
	} {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
