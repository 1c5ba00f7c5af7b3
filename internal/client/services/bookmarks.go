package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/bookmarks"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

type bookmarkRequest struct {
	UserID string `validate:"required"`
	Node   string `validate:"required,max=255"`
}

// BookmarkService keeps per-user node bookmarks.
type BookmarkService interface {
	// Add is idempotent: bookmarking a stored node returns the existing
	// bookmark with created=false.
	Add(ctx context.Context, userID, node string) (*models.Bookmark, bool, error)
	List(ctx context.Context, userID string) ([]models.Bookmark, error)
	UpdateDescription(ctx context.Context, userID, node, description string) error
	Delete(ctx context.Context, userID, node string) error
}

type bookmarkService struct {
	repo bookmarks.Repository
	log  logging.Logger
}

func NewBookmarkService(repo bookmarks.Repository, log logging.Logger) BookmarkService {
	return &bookmarkService{repo: repo, log: log}
}

func (s *bookmarkService) Add(ctx context.Context, userID, node string) (*models.Bookmark, bool, error) {
	node = strings.TrimSpace(node)
	if err := validateStruct(bookmarkRequest{UserID: userID, Node: node}); err != nil {
		return nil, false, err
	}
	bm, created, err := s.repo.Add(ctx, userID, node)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info(ctx, "bookmark added", "user_id", userID, "node", node)
	}
	return bm, created, nil
}

func (s *bookmarkService) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	return s.repo.List(ctx, userID)
}

func (s *bookmarkService) UpdateDescription(ctx context.Context, userID, node, description string) error {
	node = strings.TrimSpace(node)
	if err := validateStruct(bookmarkRequest{UserID: userID, Node: node}); err != nil {
		return err
	}
	return s.repo.UpdateDescription(ctx, userID, node, description)
}

func (s *bookmarkService) Delete(ctx context.Context, userID, node string) error {
	node = strings.TrimSpace(node)
	if err := validateStruct(bookmarkRequest{UserID: userID, Node: node}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, node); err != nil {
		return err
	}
	s.log.Info(ctx, "bookmark deleted", "user_id", userID, "node", node)
	return nil
}
