package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/filestore"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/google/uuid"
)

const collectionName = "users"

type document struct {
	Users []models.User `json:"users"`
}

type FileRepository struct {
	c *filestore.Collection[document]
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		c: filestore.New(dir, collectionName, func() document { return document{Users: []models.User{}} }),
	}
}

func (r *FileRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	err := r.c.Update(ctx, func(doc *document) error {
		for _, u := range doc.Users {
			if u.Email == created.Email {
				return fmt.Errorf("user %s: %w", created.Email, common.ErrConflict)
			}
		}
		doc.Users = append(doc.Users, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *FileRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Email == email })
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.ID == id })
}

func (r *FileRepository) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	doc, err := r.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}
