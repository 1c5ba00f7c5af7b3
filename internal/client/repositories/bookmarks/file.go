package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/filestore"
	"github.com/dmitrijs2005/anylogcli/internal/common"
)

const collectionName = "bookmarks"

type entry struct {
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// document nests user id -> node address -> entry.
type document struct {
	Bookmarks map[string]map[string]entry `json:"bookmarks"`
}

type FileRepository struct {
	c *filestore.Collection[document]
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		c: filestore.New(dir, collectionName, func() document {
			return document{Bookmarks: map[string]map[string]entry{}}
		}),
	}
}

func (r *FileRepository) Add(ctx context.Context, userID, node string) (*models.Bookmark, bool, error) {
	var (
		out     models.Bookmark
		created bool
	)

	err := r.c.Update(ctx, func(doc *document) error {
		if doc.Bookmarks == nil {
			doc.Bookmarks = map[string]map[string]entry{}
		}
		nodes := doc.Bookmarks[userID]
		if nodes == nil {
			nodes = map[string]entry{}
			doc.Bookmarks[userID] = nodes
		}
		if e, ok := nodes[node]; ok {
			out = toModel(userID, node, e)
			return errUnchanged
		}
		e := entry{CreatedAt: time.Now().UTC()}
		nodes[node] = e
		out = toModel(userID, node, e)
		created = true
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return nil, false, err
	}
	return &out, created, nil
}

func (r *FileRepository) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	doc, err := r.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	nodes := doc.Bookmarks[userID]
	out := make([]models.Bookmark, 0, len(nodes))
	for node, e := range nodes {
		out = append(out, toModel(userID, node, e))
	}
	sortBookmarks(out)
	return out, nil
}

func (r *FileRepository) UpdateDescription(ctx context.Context, userID, node, description string) error {
	return r.c.Update(ctx, func(doc *document) error {
		e, ok := doc.Bookmarks[userID][node]
		if !ok {
			return notFound(userID, node)
		}
		e.Description = description
		doc.Bookmarks[userID][node] = e
		return nil
	})
}

func (r *FileRepository) Delete(ctx context.Context, userID, node string) error {
	return r.c.Update(ctx, func(doc *document) error {
		if _, ok := doc.Bookmarks[userID][node]; !ok {
			return notFound(userID, node)
		}
		delete(doc.Bookmarks[userID], node)
		if len(doc.Bookmarks[userID]) == 0 {
			delete(doc.Bookmarks, userID)
		}
		return nil
	})
}

// errUnchanged aborts an Update without writing.
var errUnchanged = errors.New("unchanged")

func notFound(userID, node string) error {
	return fmt.Errorf("bookmark %s for user %s: %w", node, userID, common.ErrNotFound)
}

func toModel(userID, node string, e entry) models.Bookmark {
	return models.Bookmark{UserID: userID, Node: node, Description: e.Description, CreatedAt: e.CreatedAt}
}
