package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-polyglot/pkg/interfaces"
)

const (
	rootModule      = "polyglot"
	languagesModule = "polyglot.languages"
	postsModule     = "polyglot.posts"
	tagsModule      = "polyglot.tags"
	httpModule      = "polyglot.http"
	commandsModule  = "polyglot.commands"
	markdownModule  = "polyglot.markdown"
)

const (
	fieldMarkdownPath     = "markdown_path"
	fieldMarkdownLanguage = "language"
	fieldMarkdownAction   = "import_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// QualifiedModule places name under the polyglot logger namespace. Names
// already inside it are returned unchanged.
func QualifiedModule(name string) string {
	name = strings.Trim(strings.TrimSpace(name), ".")
	switch {
	case name == "" || name == rootModule:
		return rootModule
	case strings.HasPrefix(name, rootModule+"."):
		return name
	default:
		return rootModule + "." + name
	}
}

// LanguagesLogger returns the logger namespace reserved for the language registry.
func LanguagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, languagesModule)
}

// PostsLogger returns the logger namespace reserved for post services.
func PostsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, postsModule)
}

// TagsLogger returns the logger namespace reserved for tag services.
func TagsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, tagsModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP boundary.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandLogger returns a logger scoped under the commands namespace.
func CommandLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+name)
}

// MarkdownLogger returns the logger namespace reserved for markdown workflows.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// WithMarkdownContext enriches the provided logger with common markdown fields such as
// file path, language, and import action. Empty values are ignored.
func WithMarkdownContext(logger interfaces.Logger, path, language, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldMarkdownPath] = trimmed
	}
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		fields[fieldMarkdownLanguage] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldMarkdownAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
