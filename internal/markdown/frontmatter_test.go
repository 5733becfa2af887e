package markdown_test

import (
	"os"
	"testing"

	"github.com/goliatone/go-polyglot/internal/markdown"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := markdown.ParseDocument("post.md", []byte(`---
title: "  Hello  "
description: Explicit description
tags: [" one ", "", two]
---
# Heading

Body text.
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "Hello" {
		t.Fatalf("expected trimmed title, got %q", doc.Title)
	}
	if doc.Description != "Explicit description" {
		t.Fatalf("unexpected description %q", doc.Description)
	}
	if len(doc.Tags) != 2 || doc.Tags[0] != "one" || doc.Tags[1] != "two" {
		t.Fatalf("unexpected tags %v", doc.Tags)
	}
	if len(doc.Body) == 0 {
		t.Fatal("expected body")
	}
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc, err := markdown.ParseDocument("plain.md", []byte("Just a **bold** paragraph.\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "" {
		t.Fatalf("expected empty title, got %q", doc.Title)
	}
	if doc.Description != "Just a bold paragraph." {
		t.Fatalf("expected paragraph fallback, got %q", doc.Description)
	}
}

func TestFirstParagraph(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"# Only heading\n":                 "",
		"# Title\n\nFirst *line*\nnext\n":  "First line next",
		"A [link](http://x) here.\n\nLast": "A link here.",
	}
	for input, want := range cases {
		if got := markdown.FirstParagraph([]byte(input)); got != want {
			t.Fatalf("FirstParagraph(%q) = %q, want %q", input, got, want)
		}
	}
}
