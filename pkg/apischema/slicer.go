package apischema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrPathNotFound is returned when neither the literal target path nor its
// prefix-toggled alternate exists in the document.
var ErrPathNotFound = errors.New("path not found in OpenAPI document")

// PathNotFoundError reports both path keys that were tried.
type PathNotFoundError struct {
	Path      string
	Alternate string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q not found in OpenAPI document (also tried %q)", e.Path, e.Alternate)
}

func (e *PathNotFoundError) Unwrap() error { return ErrPathNotFound }

// Load reads an OpenAPI v3 document from a local file path or an http(s) URL.
func Load(ctx context.Context, source string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("invalid schema URL %q: %w", source, err)
		}
		doc, err := loader.LoadFromURI(u)
		if err != nil {
			return nil, fmt.Errorf("failed to load OpenAPI document from %s: %w", source, err)
		}
		return doc, nil
	}

	doc, err := loader.LoadFromFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document from %s: %w", source, err)
	}
	return doc, nil
}

// PathFromURL converts a backend function URL into the key used in the
// document's paths collection. Function hosts conventionally strip a fixed
// "/api" segment from the published schema, so the prefix is removed here.
func PathFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid function URL %q: %w", rawURL, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	switch {
	case strings.HasPrefix(path, "/api/"):
		path = path[len("/api"):]
	case path == "/api":
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// Slice returns a deep copy of the document with its paths collection reduced
// to exactly the one matching entry, keeping all shared component definitions
// untouched. If the literal path is absent, the "/api" prefix-toggled form is
// tried before failing.
func Slice(doc *openapi3.T, targetPath string) (*openapi3.T, error) {
	alternate := togglePrefix(targetPath)

	key := targetPath
	if doc.Paths == nil || doc.Paths.Value(key) == nil {
		if doc.Paths != nil && doc.Paths.Value(alternate) != nil {
			key = alternate
		} else {
			return nil, &PathNotFoundError{Path: targetPath, Alternate: alternate}
		}
	}

	// Deep copy through a JSON round trip so the caller can never mutate the
	// source document through shared pointers.
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI document: %w", err)
	}
	out := &openapi3.T{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to copy OpenAPI document: %w", err)
	}

	item := out.Paths.Value(key)
	sliced := openapi3.NewPaths()
	sliced.Set(key, item)
	out.Paths = sliced

	return out, nil
}

func togglePrefix(path string) string {
	if strings.HasPrefix(path, "/api") {
		toggled := strings.TrimPrefix(path, "/api")
		if toggled == "" {
			return "/"
		}
		return toggled
	}
	return "/api" + path
}
