package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// Document is a parsed Markdown file.
type Document struct {
	Path        string
	Title       string
	Description string
	Tags        []string
	Body        []byte
}

type frontMatterEnvelope struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Summary     string   `yaml:"summary"`
	Tags        []string `yaml:"tags"`
}

// ParseDocument extracts frontmatter and body from source. summary is read as
// an alias of description, and a missing description falls back to the first
// paragraph of the body.
func ParseDocument(path string, source []byte) (*Document, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter %s: %w", path, err)
	}

	description := strings.TrimSpace(meta.Description)
	if description == "" {
		description = strings.TrimSpace(meta.Summary)
	}
	if description == "" {
		description = FirstParagraph(body)
	}

	var labels []string
	for _, tag := range meta.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}

	return &Document{
		Path:        path,
		Title:       strings.TrimSpace(meta.Title),
		Description: description,
		Tags:        labels,
		Body:        body,
	}, nil
}
