// Package markdown imports a directory of Markdown files as posts in one
// language. Frontmatter supplies the title, description and tag labels; the
// body is stored as the post content.
package markdown
