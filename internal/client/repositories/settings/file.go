package settings

import (
	"context"

	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/filestore"
)

const collectionName = "settings"

type FileRepository struct {
	c *filestore.Collection[map[string]string]
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		c: filestore.New(dir, collectionName, func() map[string]string { return map[string]string{} }),
	}
}

func (r *FileRepository) Get(ctx context.Context, key string) (string, error) {
	m, err := r.c.Read(ctx)
	if err != nil {
		return "", err
	}
	return m[key], nil
}

func (r *FileRepository) Set(ctx context.Context, key, value string) error {
	return r.c.Update(ctx, func(m *map[string]string) error {
		if *m == nil {
			*m = map[string]string{}
		}
		(*m)[key] = value
		return nil
	})
}

func (r *FileRepository) Delete(ctx context.Context, key string) error {
	return r.c.Update(ctx, func(m *map[string]string) error {
		delete(*m, key)
		return nil
	})
}
