package text

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// ResourceLoader fetches font bytes by URI.
// Implementations must be safe for concurrent use.
type ResourceLoader interface {
	Load(ctx context.Context, uri string) ([]byte, error)
}

// FileLoader reads fonts from the local file system.
// It accepts plain paths and file:// URIs.
type FileLoader struct{}

// Load implements ResourceLoader.
func (FileLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		uri = u.Path
	}
	return os.ReadFile(filepath.FromSlash(uri))
}

// DefaultMaxFontBytes caps the size of a downloaded font.
const DefaultMaxFontBytes = 32 << 20

// HTTPLoader downloads fonts over HTTP(S).
type HTTPLoader struct {
	Client   *http.Client // nil means http.DefaultClient
	MaxBytes int64        // 0 means DefaultMaxFontBytes
}

// Load implements ResourceLoader.
func (l HTTPLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxFontBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("font larger than %d bytes", limit)
	}
	return data, nil
}

// MemoryLoader serves fonts registered in memory.
type MemoryLoader struct {
	mu    sync.RWMutex
	fonts map[string][]byte
}

// NewMemoryLoader creates an empty MemoryLoader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{fonts: make(map[string][]byte)}
}

// BuiltinScheme prefixes URIs of the Go fonts bundled with the binary.
const BuiltinScheme = "builtin"

// NewBuiltinLoader serves the Go font family under builtin: URIs, for example
// "builtin:goregular" or "builtin:gobold".
func NewBuiltinLoader() *MemoryLoader {
	m := NewMemoryLoader()
	for name, data := range map[string][]byte{
		"goregular":    goregular.TTF,
		"gobold":       gobold.TTF,
		"goitalic":     goitalic.TTF,
		"gobolditalic": gobolditalic.TTF,
		"gomedium":     gomedium.TTF,
		"gomono":       gomono.TTF,
	} {
		m.Add(BuiltinScheme+":"+name, data)
	}
	return m
}

// Add registers data under uri.
func (m *MemoryLoader) Add(uri string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fonts[uri] = data
}

// Load implements ResourceLoader.
func (m *MemoryLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.fonts[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// MultiLoader routes URIs to loaders by scheme. URIs without a scheme use
// the "file" entry.
type MultiLoader map[string]ResourceLoader

// DefaultLoader serves files, HTTP(S) and builtin fonts.
func DefaultLoader() MultiLoader {
	httpLoader := HTTPLoader{}
	return MultiLoader{
		"file":        FileLoader{},
		"http":        httpLoader,
		"https":       httpLoader,
		BuiltinScheme: NewBuiltinLoader(),
	}
}

// Load implements ResourceLoader.
func (m MultiLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	scheme := uriScheme(uri)
	if scheme == "" {
		scheme = "file"
	}
	l, ok := m[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return l.Load(ctx, uri)
}

// uriScheme returns the lower-case scheme of uri, or "" for plain paths.
// Single-letter schemes are treated as Windows drive letters.
func uriScheme(uri string) string {
	i := strings.IndexByte(uri, ':')
	if i < 2 {
		return ""
	}
	for _, c := range uri[:i] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return ""
		}
	}
	return strings.ToLower(uri[:i])
}

// resolveURI resolves a font URI against the scene resource root.
// URIs with a scheme and absolute paths are returned unchanged.
func resolveURI(root, uri string) string {
	if root == "" || uriScheme(uri) != "" || filepath.IsAbs(uri) || strings.HasPrefix(uri, "/") {
		return uri
	}
	if uriScheme(root) != "" && uriScheme(root) != "file" {
		base, err := url.Parse(root)
		if err != nil {
			return uri
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return uri
		}
		return base.ResolveReference(ref).String()
	}
	if strings.HasPrefix(root, "file://") {
		return strings.TrimSuffix(root, "/") + "/" + uri
	}
	return filepath.Join(root, filepath.FromSlash(uri))
}
