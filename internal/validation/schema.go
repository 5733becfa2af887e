package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-polyglot/internal/domain"
)

var ErrSchemaUnknown = errors.New("validation: unknown schema")

const (
	SchemaPost = "post"
	SchemaTag  = "tag"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

var quotedName = regexp.MustCompile(`'([^']+)'`)

// ValidationIssue captures a single schema failure.
type ValidationIssue struct {
	Location string
	Keyword  string
	Message  string
}

// ValidatePayload checks a decoded JSON document (the result of
// json.Unmarshal into any) against a named payload schema. Failures are
// returned as *domain.ValidationError keyed by dotted field path.
func ValidatePayload(name string, payload any) error {
	schema, err := lookup(name)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		var validationErr *jsonschema.ValidationError
		if !errors.As(err, &validationErr) {
			return fmt.Errorf("validation: %s: %w", name, err)
		}
		return issuesToFields(collectValidationIssues(validationErr))
	}
	return nil
}

func lookup(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = compileSchemas(SchemaPost, SchemaTag)
	})
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaUnknown, name)
	}
	return schema, nil
}

func compileSchemas(names ...string) (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("validation: read schema %s: %w", name, err)
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		resource := name + ".json"
		if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("validation: add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("validation: compile schema %s: %w", name, err)
		}
		out[name] = schema
	}
	return out, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Keyword:  lastSegment(node.KeywordLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func issuesToFields(issues []ValidationIssue) error {
	verr := &domain.ValidationError{}
	for _, issue := range issues {
		field := pointerToField(issue.Location)
		switch issue.Keyword {
		case "required":
			for _, match := range quotedName.FindAllStringSubmatch(issue.Message, -1) {
				missing := joinField(field, match[1])
				verr.Add(missing, fmt.Sprintf("The %s field is required.", missing))
			}
		case "type":
			verr.Add(orRoot(field), fmt.Sprintf("The %s field has an invalid type.", orRoot(field)))
		case "minLength":
			verr.Add(orRoot(field), fmt.Sprintf("The %s is too short: %s.", orRoot(field), issue.Message))
		case "maxLength":
			verr.Add(orRoot(field), fmt.Sprintf("The %s is too long: %s.", orRoot(field), issue.Message))
		case "pattern":
			verr.Add(orRoot(field), fmt.Sprintf("The %s format is invalid.", orRoot(field)))
		default:
			verr.Add(orRoot(field), issue.Message)
		}
	}
	if verr.Empty() {
		verr.Add("payload", "The payload is invalid.")
	}
	return verr
}

// pointerToField converts a JSON pointer ("/tags/0/id") to a dotted path ("tags.0.id").
func pointerToField(pointer string) string {
	trimmed := strings.Trim(strings.TrimPrefix(pointer, "#"), "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return strings.Join(parts, ".")
}

func joinField(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func orRoot(field string) string {
	if field == "" {
		return "payload"
	}
	return field
}

func lastSegment(location string) string {
	location = strings.TrimRight(location, "/")
	if idx := strings.LastIndex(location, "/"); idx >= 0 {
		return location[idx+1:]
	}
	return location
}
