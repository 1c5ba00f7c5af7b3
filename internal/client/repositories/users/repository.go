// Package users stores local accounts. Email is unique (exact match).
package users

import (
	"context"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
)

type Repository interface {
	// Create assigns ID and CreatedAt when empty. A taken email yields
	// common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
