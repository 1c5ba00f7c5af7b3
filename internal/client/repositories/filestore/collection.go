// Package filestore keeps a whole collection in one JSON file.
//
// Every mutation is a read-modify-write of the entire document performed
// under a per-collection mutex and persisted with an atomic rename, so a
// reader never sees a half-written file and two writers in this process
// never lose each other's update.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/filex"
)

const filePerm = 0o600

// Collection is a JSON document of type T stored at one path.
type Collection[T any] struct {
	name  string
	path  string
	empty func() T

	mu sync.Mutex
}

// New returns the collection stored as <dir>/<name>.json. empty builds the
// document used when the file does not exist yet.
func New[T any](dir, name string, empty func() T) *Collection[T] {
	return &Collection[T]{
		name:  name,
		path:  filepath.Join(dir, name+".json"),
		empty: empty,
	}
}

func (c *Collection[T]) Name() string { return c.name }
func (c *Collection[T]) Path() string { return c.path }

// Read returns the current document.
func (c *Collection[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load()
}

// Update loads the document, applies fn and writes the result back. When fn
// returns an error nothing is written and that error is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func(doc *T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return c.store(doc)
}

func (c *Collection[T]) load() (T, error) {
	doc := c.empty()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, common.NewStorageError(c.name, "read", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return c.empty(), common.NewStorageError(c.name, "decode", err)
	}
	return doc, nil
}

func (c *Collection[T]) store(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return common.NewStorageError(c.name, "encode", err)
	}
	if _, err := filex.EnsureDir(filepath.Dir(c.path)); err != nil {
		return common.NewStorageError(c.name, "write", err)
	}
	if err := filex.WriteFileAtomic(c.path, append(data, '\n'), filePerm); err != nil {
		return common.NewStorageError(c.name, "write", err)
	}
	return nil
}
