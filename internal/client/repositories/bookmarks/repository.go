// Package bookmarks stores node addresses saved per user, keyed by
// (user id, node address).
package bookmarks

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
)

type Repository interface {
	// Add stores a bookmark with an empty description. When the pair is
	// already stored it returns the existing record and created=false.
	Add(ctx context.Context, userID, node string) (bm *models.Bookmark, created bool, err error)
	List(ctx context.Context, userID string) ([]models.Bookmark, error)
	UpdateDescription(ctx context.Context, userID, node, description string) error
	Delete(ctx context.Context, userID, node string) error
}

func sortBookmarks(bms []models.Bookmark) {
	sort.Slice(bms, func(i, j int) bool {
		if !bms[i].CreatedAt.Equal(bms[j].CreatedAt) {
			return bms[i].CreatedAt.Before(bms[j].CreatedAt)
		}
		return bms[i].Node < bms[j].Node
	})
}
