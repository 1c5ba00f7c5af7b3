// Package presets stores preset groups and the presets inside them.
//
// A preset always references a group owned by the same user. Deleting a
// group removes its presets in the same write; no caller can observe one
// without the other.
package presets

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
)

type Repository interface {
	// CreateGroup fails with common.ErrConflict when the user already has
	// a group of that name.
	CreateGroup(ctx context.Context, g *models.PresetGroup) (*models.PresetGroup, error)
	ListGroups(ctx context.Context, userID string) ([]models.PresetGroup, error)
	GetGroup(ctx context.Context, userID, groupID string) (*models.PresetGroup, error)
	// DeleteGroup removes the group and its presets and returns how many
	// presets went with it.
	DeleteGroup(ctx context.Context, userID, groupID string) (int, error)

	// CreatePreset fails with common.ErrNotFound unless p.GroupID names a
	// group owned by p.UserID.
	CreatePreset(ctx context.Context, p *models.Preset) (*models.Preset, error)
	ListPresets(ctx context.Context, userID, groupID string) ([]models.Preset, error)
	DeletePreset(ctx context.Context, userID, presetID string) error
}

func sortGroups(gs []models.PresetGroup) {
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].CreatedAt.Before(gs[j].CreatedAt) })
}

func sortPresets(ps []models.Preset) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.Before(ps[j].CreatedAt) })
}
