// Package images resolves product image references to raw bytes.
//
// A reference can be a path under a configured root directory, an
// http(s) URL, or inline base64 data with a "base64:" prefix. Each
// variant fails with its own error kind so the API layer can report a
// bad reference as a client fault instead of a server fault.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrImageNotFound means the referenced file does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageFetch means a URL reference could not be retrieved.
	ErrImageFetch = errors.New("image fetch failed")

	// ErrBadReference means the reference itself is malformed: inline data
	// that is not valid base64, or a path escaping the image root.
	ErrBadReference = errors.New("bad image reference")
)

// Resolver turns an image reference into the image bytes.
type Resolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// FileResolver reads images from a local directory.
type FileResolver struct {
	root string
}

// NewFileResolver creates a FileResolver rooted at the given directory.
func NewFileResolver(root string) *FileResolver {
	return &FileResolver{root: root}
}

// Resolve reads the file at ref relative to the resolver root.
func (r *FileResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	cleaned := filepath.Clean(ref)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return nil, fmt.Errorf("%w: path %q escapes image root", ErrBadReference, ref)
	}

	data, err := os.ReadFile(filepath.Join(r.root, cleaned))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read image %q: %w", ref, err)
	}
	return data, nil
}

// HTTPResolver fetches images from http(s) URLs.
type HTTPResolver struct {
	client *http.Client
}

// NewHTTPResolver creates an HTTPResolver with a bounded request timeout.
func NewHTTPResolver(timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		client: &http.Client{Timeout: timeout},
	}
}

// Resolve downloads the image at the given URL.
func (r *HTTPResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadReference, ref, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageFetch, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %q returned status %d", ErrImageFetch, ref, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of %q: %v", ErrImageFetch, ref, err)
	}
	return data, nil
}

// InlineResolver decodes base64 data carried inside the reference itself.
type InlineResolver struct{}

// Resolve decodes the data after the "base64:" prefix.
func (InlineResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	encoded := strings.TrimPrefix(ref, inlinePrefix)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 data: %v", ErrBadReference, err)
	}
	return data, nil
}

const inlinePrefix = "base64:"

// DefaultResolver dispatches on the shape of the reference: URLs go to
// the HTTP resolver, "base64:" data is decoded inline, anything else is
// treated as a path under the image root.
type DefaultResolver struct {
	file   *FileResolver
	http   *HTTPResolver
	inline InlineResolver
}

// NewDefaultResolver creates a DefaultResolver with the given file root.
func NewDefaultResolver(root string) *DefaultResolver {
	return &DefaultResolver{
		file: NewFileResolver(root),
		http: NewHTTPResolver(10 * time.Second),
	}
}

// Resolve resolves the reference; an empty reference means no image.
func (r *DefaultResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case ref == "":
		return nil, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.http.Resolve(ctx, ref)
	case strings.HasPrefix(ref, inlinePrefix):
		return r.inline.Resolve(ctx, ref)
	default:
		return r.file.Resolve(ctx, ref)
	}
}
