// Package digest renders channels into a Markdown digest with YAML frontmatter
// and reads such files back.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"producthot/internal/channels"
	"producthot/internal/model"

	"gopkg.in/yaml.v3"
)

type Item struct {
	Title   string
	URL     string
	Summary string
	Source  string
	Likes   int
}

type Section struct {
	ID         model.Category
	Name       string
	UpdateTime string
	Items      []Item
}

// Data is everything Render needs.
type Data struct {
	Title      string
	Slug       string
	Datetime   string
	Summary    string
	Preface    string
	Postscript string
	Empty      string // shown for sections without items
	Sections   []Section
}

// Frontmatter is the YAML header of a digest file.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	Datetime string `yaml:"datetime"`
	Summary  string `yaml:"summary,omitempty"`
}

// Options controls Build.
type Options struct {
	Title      string // supports {.CurrentDate}
	Preface    string
	Postscript string
	Summary    string
	Locale     string
	TopN       int // per channel; 0 keeps all
	Now        time.Time
}

//go:embed digest.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Parse(digestTpl))

// Build turns channels into digest data. Items keep the channel order.
func Build(chs []model.Channel, opts Options) Data {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	title := strings.TrimSpace(ExpandVars(opts.Title, now))
	if title == "" {
		title = "ProductHot " + now.Format("2006-01-02")
	}
	d := Data{
		Title:      title,
		Slug:       "producthot-" + now.Format("20060102"),
		Datetime:   now.Format("2006-01-02 15:04"),
		Summary:    strings.TrimSpace(opts.Summary),
		Preface:    strings.TrimSpace(ExpandVars(opts.Preface, now)),
		Postscript: strings.TrimSpace(ExpandVars(opts.Postscript, now)),
		Empty:      channels.Placeholder(opts.Locale),
	}
	for _, ch := range chs {
		sec := Section{ID: ch.ID, Name: ch.Name, UpdateTime: ch.UpdateTime}
		for i, a := range ch.Articles {
			if opts.TopN > 0 && i >= opts.TopN {
				break
			}
			it := Item{
				Title:   a.Title,
				URL:     a.Link,
				Summary: oneLine(a.Summary),
				Likes:   a.Likes,
			}
			if len(a.Tags) > 0 {
				it.Source = a.Tags[0]
			}
			sec.Items = append(sec.Items, it)
		}
		d.Sections = append(d.Sections, sec)
	}
	return d
}

// Render produces the Markdown file contents.
func Render(d Data) (string, error) {
	fm, err := yaml.Marshal(Frontmatter{Title: d.Title, Slug: d.Slug, Datetime: d.Datetime, Summary: d.Summary})
	if err != nil {
		return "", fmt.Errorf("digest: frontmatter: %w", err)
	}
	body, err := renderBody(d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.Write(body)
	return buf.String(), nil
}

func renderBody(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := compiled.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("digest: render: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders d into dir/<slug>.md and returns the path.
func WriteFile(dir string, d Data) (string, error) {
	out, err := Render(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, d.Slug+".md")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ExpandVars substitutes {.CurrentDate} with now as YYYY-MM-DD (UTC).
func ExpandVars(s string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	return strings.ReplaceAll(s, "{.CurrentDate}", now.UTC().Format("2006-01-02"))
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 280 {
		s = string(r[:280]) + "…"
	}
	return s
}
