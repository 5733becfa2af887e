package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/domain"
	"github.com/goliatone/go-polyglot/internal/languages"
	"github.com/goliatone/go-polyglot/internal/logging"
	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

var (
	ErrPostServiceRequired = errors.New("markdown importer: post service is required")
	ErrTagServiceRequired  = errors.New("markdown importer: tag service is required")
	ErrDirectoryRequired   = errors.New("markdown importer: directory is required")
)

// ImportedPost records a post created from a file.
type ImportedPost struct {
	Path   string    `json:"path"`
	PostID uuid.UUID `json:"post_id"`
	Tags   int       `json:"tags"`
}

// SkippedTag records a tag label that could not become a tag.
type SkippedTag struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// FileError records a file that was not imported.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ImportResult summarises one directory import.
type ImportResult struct {
	Language    string         `json:"language"`
	Created     []ImportedPost `json:"created"`
	CreatedTags []string       `json:"created_tags"`
	SkippedTags []SkippedTag   `json:"skipped_tags"`
	Failed      []FileError    `json:"failed"`
}

// Option configures the importer.
type Option func(*Importer)

func WithLogger(logger interfaces.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Importer turns Markdown files into posts.
type Importer struct {
	posts     posts.Service
	tags      tags.Service
	languages languages.Registry
	logger    interfaces.Logger
}

// NewImporter wires the importer to the post and tag services.
func NewImporter(postService posts.Service, tagService tags.Service, registry languages.Registry, opts ...Option) *Importer {
	i := &Importer{
		posts:     postService,
		tags:      tagService,
		languages: registry,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportDirectory imports every *.md file below dir.
func (i *Importer) ImportDirectory(ctx context.Context, dir, lang string) (*ImportResult, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrDirectoryRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("markdown importer: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("markdown importer: %s is not a directory", dir)
	}
	return i.ImportFS(ctx, os.DirFS(dir), lang)
}

// ImportFS imports every *.md file of fsys in lexical path order. Per file
// failures are collected in the result; only setup errors abort the run.
func (i *Importer) ImportFS(ctx context.Context, fsys fs.FS, lang string) (*ImportResult, error) {
	if i.posts == nil {
		return nil, ErrPostServiceRequired
	}
	if i.tags == nil {
		return nil, ErrTagServiceRequired
	}
	language, err := languages.Require(ctx, i.languages, lang)
	if err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown importer: walk: %w", err)
	}

	run := &importRun{
		importer: i,
		language: language.Prefix,
		result:   &ImportResult{Language: language.Prefix},
		tagIDs:   map[string]uuid.UUID{},
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return run.result, err
		}
		run.importFile(ctx, fsys, file)
	}

	logging.WithMarkdownContext(i.logger, "", language.Prefix, "import").Info("markdown.import.completed",
		"created", len(run.result.Created),
		"created_tags", len(run.result.CreatedTags),
		"skipped_tags", len(run.result.SkippedTags),
		"failed", len(run.result.Failed),
	)
	return run.result, nil
}

type importRun struct {
	importer *Importer
	language string
	result   *ImportResult
	tagIDs   map[string]uuid.UUID
}

func (r *importRun) importFile(ctx context.Context, fsys fs.FS, file string) {
	logger := logging.WithMarkdownContext(r.importer.logger, file, r.language, "create")

	source, err := fs.ReadFile(fsys, file)
	if err != nil {
		r.fail(logger, file, err)
		return
	}
	doc, err := ParseDocument(file, source)
	if err != nil {
		r.fail(logger, file, err)
		return
	}

	tagIDs := make([]uuid.UUID, 0, len(doc.Tags))
	for _, label := range doc.Tags {
		id, ok := r.resolveTag(ctx, file, label)
		if ok {
			tagIDs = append(tagIDs, id)
		}
	}

	post, err := r.importer.posts.Create(ctx, posts.CreatePostRequest{
		Language: r.language,
		Translation: posts.TranslationInput{
			Title:       doc.Title,
			Description: doc.Description,
			Content:     string(doc.Body),
		},
		TagIDs: tagIDs,
	})
	if err != nil {
		r.fail(logger, file, err)
		return
	}
	logger.Debug("markdown.import.file_created", "post_id", post.ID, "tags", len(post.Tags))
	r.result.Created = append(r.result.Created, ImportedPost{Path: file, PostID: post.ID, Tags: len(post.Tags)})
}

// resolveTag maps a label to a tag id through its slug, reusing an existing
// tag of that name or creating one titled with the label.
func (r *importRun) resolveTag(ctx context.Context, file, label string) (uuid.UUID, bool) {
	name, err := slug.Normalize(label)
	if err != nil || strings.TrimSpace(name) == "" {
		r.skip(file, label, "label has no usable slug")
		return uuid.Nil, false
	}
	if id, ok := r.tagIDs[name]; ok {
		return id, true
	}

	existing, err := r.importer.tags.GetByName(ctx, name)
	switch {
	case err == nil:
		r.tagIDs[name] = existing.ID
		return existing.ID, true
	case !errors.Is(err, domain.ErrNotFound):
		r.skip(file, label, err.Error())
		return uuid.Nil, false
	}

	created, err := r.importer.tags.Create(ctx, tags.CreateTagRequest{
		Language: r.language,
		Name:     name,
		Title:    label,
	})
	if err != nil {
		r.skip(file, label, err.Error())
		return uuid.Nil, false
	}
	r.tagIDs[name] = created.ID
	r.result.CreatedTags = append(r.result.CreatedTags, name)
	return created.ID, true
}

func (r *importRun) skip(file, label, reason string) {
	r.importer.logger.Warn("markdown.import.tag_skipped", "markdown_path", file, "label", label, "reason", reason)
	r.result.SkippedTags = append(r.result.SkippedTags, SkippedTag{Path: file, Label: label, Reason: reason})
}

func (r *importRun) fail(logger interfaces.Logger, file string, err error) {
	logger.Warn("markdown.import.file_failed", "error", err)
	r.result.Failed = append(r.result.Failed, FileError{Path: file, Error: err.Error()})
}
