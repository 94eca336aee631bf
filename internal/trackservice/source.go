package trackservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
)

// vaultSource adapts a storage.Provider to the engine's document source.
// It caches file reads for the duration of one run so a document scanned
// for both metadata and text hits the disk once.
type vaultSource struct {
	store storage.Provider

	mu    sync.Mutex
	cache map[string][]byte
}

func newVaultSource(store storage.Provider) *vaultSource {
	return &vaultSource{store: store, cache: make(map[string][]byte)}
}

func (v *vaultSource) List(ctx context.Context, folder string, includeSubfolders bool) ([]engine.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metas, err := v.store.List(folder)
	if errors.Is(err, os.ErrNotExist) {
		// A tracked folder that does not exist yet simply has no notes.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list vault folder %q: %w", folder, err)
	}

	out := make([]engine.Document, 0, len(metas))
	for _, m := range metas {
		if !includeSubfolders && !directChild(folder, m.Path) {
			continue
		}
		out = append(out, engine.Document{
			Path: m.Path,
			Name: strings.TrimSuffix(path.Base(m.Path), path.Ext(m.Path)),
		})
	}
	return out, nil
}

func (v *vaultSource) ReadText(ctx context.Context, doc engine.Document) (string, error) {
	data, err := v.read(ctx, doc.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (v *vaultSource) ReadMetadata(ctx context.Context, doc engine.Document) (*engine.Metadata, error) {
	data, err := v.read(ctx, doc.Path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.Path, err)
	}
	return &engine.Metadata{Frontmatter: res.Frontmatter, Links: res.Links}, nil
}

func (v *vaultSource) ResolveByPath(ctx context.Context, p string) (*engine.Document, error) {
	if !strings.HasSuffix(p, ".md") {
		p += ".md"
	}
	_, err := v.read(ctx, p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.Document{
		Path: p,
		Name: strings.TrimSuffix(path.Base(p), path.Ext(p)),
	}, nil
}

func (v *vaultSource) read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	data, ok := v.cache[p]
	v.mu.Unlock()
	if ok {
		return data, nil
	}

	data, err := v.store.Read(p)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.cache[p] = data
	v.mu.Unlock()
	return data, nil
}

// directChild reports whether p sits immediately inside folder, with no
// intermediate directory.
func directChild(folder, p string) bool {
	dir := path.Dir(p)
	if folder == "" || folder == "." {
		return dir == "."
	}
	return dir == strings.Trim(folder, "/")
}
