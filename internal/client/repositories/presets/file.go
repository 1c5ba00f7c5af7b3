package presets

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/filestore"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/google/uuid"
)

const collectionName = "presets"

// Groups and presets share one file so a cascade is a single atomic write.
type document struct {
	Groups  []models.PresetGroup `json:"preset_groups"`
	Presets []models.Preset      `json:"presets"`
}

type FileRepository struct {
	c *filestore.Collection[document]
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		c: filestore.New(dir, collectionName, func() document {
			return document{Groups: []models.PresetGroup{}, Presets: []models.Preset{}}
		}),
	}
}

func (r *FileRepository) CreateGroup(ctx context.Context, g *models.PresetGroup) (*models.PresetGroup, error) {
	created := *g
	fillGroup(&created)

	err := r.c.Update(ctx, func(doc *document) error {
		for _, existing := range doc.Groups {
			if existing.UserID == created.UserID && existing.GroupName == created.GroupName {
				return fmt.Errorf("group %q: %w", created.GroupName, common.ErrConflict)
			}
		}
		doc.Groups = append(doc.Groups, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *FileRepository) ListGroups(ctx context.Context, userID string) ([]models.PresetGroup, error) {
	doc, err := r.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.PresetGroup{}
	for _, g := range doc.Groups {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sortGroups(out)
	return out, nil
}

func (r *FileRepository) GetGroup(ctx context.Context, userID, groupID string) (*models.PresetGroup, error) {
	doc, err := r.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if i := findGroup(doc.Groups, userID, groupID); i >= 0 {
		g := doc.Groups[i]
		return &g, nil
	}
	return nil, groupNotFound(groupID)
}

func (r *FileRepository) DeleteGroup(ctx context.Context, userID, groupID string) (int, error) {
	removed := 0
	err := r.c.Update(ctx, func(doc *document) error {
		i := findGroup(doc.Groups, userID, groupID)
		if i < 0 {
			return groupNotFound(groupID)
		}
		doc.Groups = append(doc.Groups[:i], doc.Groups[i+1:]...)

		kept := doc.Presets[:0]
		for _, p := range doc.Presets {
			if p.GroupID == groupID && p.UserID == userID {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		doc.Presets = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *FileRepository) CreatePreset(ctx context.Context, p *models.Preset) (*models.Preset, error) {
	created := *p
	fillPreset(&created)

	err := r.c.Update(ctx, func(doc *document) error {
		if findGroup(doc.Groups, created.UserID, created.GroupID) < 0 {
			return groupNotFound(created.GroupID)
		}
		doc.Presets = append(doc.Presets, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *FileRepository) ListPresets(ctx context.Context, userID, groupID string) ([]models.Preset, error) {
	doc, err := r.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Preset{}
	for _, p := range doc.Presets {
		if p.UserID == userID && p.GroupID == groupID {
			out = append(out, p)
		}
	}
	sortPresets(out)
	return out, nil
}

func (r *FileRepository) DeletePreset(ctx context.Context, userID, presetID string) error {
	return r.c.Update(ctx, func(doc *document) error {
		for i, p := range doc.Presets {
			if p.ID == presetID && p.UserID == userID {
				doc.Presets = append(doc.Presets[:i], doc.Presets[i+1:]...)
				return nil
			}
		}
		return presetNotFound(presetID)
	})
}

func findGroup(groups []models.PresetGroup, userID, groupID string) int {
	for i, g := range groups {
		if g.ID == groupID && g.UserID == userID {
			return i
		}
	}
	return -1
}

func fillGroup(g *models.PresetGroup) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
}

func fillPreset(p *models.Preset) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

// Ownership mismatches read as not found so ids of other users leak nothing.
func groupNotFound(groupID string) error {
	return fmt.Errorf("preset group %s: %w", groupID, common.ErrNotFound)
}

func presetNotFound(presetID string) error {
	return fmt.Errorf("preset %s: %w", presetID, common.ErrNotFound)
}
