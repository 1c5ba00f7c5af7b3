package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/presets"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

type groupRequest struct {
	UserID    string `validate:"required"`
	GroupName string `validate:"required,segment,max=100"`
}

// PresetRequest describes a saved command button.
type PresetRequest struct {
	GroupID string `validate:"required"`
	Command string `validate:"required"`
	Type    string `validate:"required,oneof=GET POST"`
	Button  string `validate:"required,segment,max=100"`
}

// PresetService manages preset groups and presets.
//
// The local store is the source of truth. When a PolicyService is
// attached, successful changes are also written to the node's
// bookmark_policy document; those writes are best effort and only logged
// on failure.
type PresetService interface {
	CreateGroup(ctx context.Context, userID, name string) (*models.PresetGroup, error)
	ListGroups(ctx context.Context, userID string) ([]models.PresetGroup, error)
	DeleteGroup(ctx context.Context, userID, groupID string) (int, error)
	CreatePreset(ctx context.Context, userID string, req PresetRequest) (*models.Preset, error)
	ListPresets(ctx context.Context, userID, groupID string) ([]models.Preset, error)
	DeletePreset(ctx context.Context, userID, presetID string) error
}

type presetService struct {
	repo   presets.Repository
	mirror PolicyService
	log    logging.Logger
}

// NewPresetService builds the service; mirror may be nil.
func NewPresetService(repo presets.Repository, mirror PolicyService, log logging.Logger) PresetService {
	return &presetService{repo: repo, mirror: mirror, log: log}
}

func (s *presetService) CreateGroup(ctx context.Context, userID, name string) (*models.PresetGroup, error) {
	name = strings.TrimSpace(name)
	if err := validateStruct(groupRequest{UserID: userID, GroupName: name}); err != nil {
		return nil, err
	}

	g, err := s.repo.CreateGroup(ctx, &models.PresetGroup{UserID: userID, GroupName: name})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "preset group created", "user_id", userID, "group_id", g.ID)

	s.sync(ctx, "add group", func(m PolicyService) error { return m.AddGroup(ctx, g.GroupName) })
	return g, nil
}

func (s *presetService) ListGroups(ctx context.Context, userID string) ([]models.PresetGroup, error) {
	return s.repo.ListGroups(ctx, userID)
}

func (s *presetService) DeleteGroup(ctx context.Context, userID, groupID string) (int, error) {
	g, err := s.repo.GetGroup(ctx, userID, groupID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteGroup(ctx, userID, groupID)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "preset group deleted", "user_id", userID, "group_id", groupID, "presets", n)

	s.sync(ctx, "delete group", func(m PolicyService) error { return m.DeleteGroup(ctx, g.GroupName) })
	return n, nil
}

func (s *presetService) CreatePreset(ctx context.Context, userID string, req PresetRequest) (*models.Preset, error) {
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	req.Button = strings.TrimSpace(req.Button)
	req.Command = strings.TrimSpace(req.Command)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// Ownership is checked by the repository as well; the group is read
	// here for its name.
	g, err := s.repo.GetGroup(ctx, userID, req.GroupID)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.CreatePreset(ctx, &models.Preset{
		UserID:  userID,
		GroupID: req.GroupID,
		Command: req.Command,
		Type:    models.ParseMethod(req.Type),
		Button:  req.Button,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "preset created", "user_id", userID, "preset_id", p.ID)

	s.sync(ctx, "add preset", func(m PolicyService) error {
		return m.AddPreset(ctx, g.GroupName, p.Button, p.Type, p.Command)
	})
	return p, nil
}

func (s *presetService) ListPresets(ctx context.Context, userID, groupID string) ([]models.Preset, error) {
	return s.repo.ListPresets(ctx, userID, groupID)
}

func (s *presetService) DeletePreset(ctx context.Context, userID, presetID string) error {
	if err := s.repo.DeletePreset(ctx, userID, presetID); err != nil {
		return err
	}
	s.log.Info(ctx, "preset deleted", "user_id", userID, "preset_id", presetID)
	return nil
}

func (s *presetService) sync(ctx context.Context, op string, fn func(PolicyService) error) {
	if s.mirror == nil {
		return
	}
	if err := fn(s.mirror); err != nil {
		s.log.Warn(ctx, "policy mirror failed", "op", op, "error", err)
	}
}
