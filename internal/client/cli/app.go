package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/config"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/settings"
	"github.com/dmitrijs2005/anylogcli/internal/client/services"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

type App struct {
	cfg   *config.Config
	log   logging.Logger
	store *repositories.Store

	node     client.Client
	nodeAddr string
	nodeSvc  services.NodeService
	policy   services.PolicyService

	auth      services.AuthService
	bookmarks services.BookmarkService
	presets   services.PresetService

	session *services.Session

	in  *bufio.Reader
	out io.Writer
}

// NewApp opens the local store, restores a saved session and connects to
// the configured node, falling back to the last node used.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	store, err := repositories.Open(ctx, cfg.StoreBackend, cfg.DataDir, cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	secret, err := signingKey(ctx, cfg, store.Settings)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		auth:      services.NewAuthService(store.Users, secret, cfg.TokenTTL, log),
		bookmarks: services.NewBookmarkService(store.Bookmarks, log),
		in:        bufio.NewReader(in),
		out:       out,
	}

	addr := cfg.NodeAddr
	if addr == "" {
		if addr, err = store.Settings.Get(ctx, settings.KeyNode); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	if addr == "" {
		addr = config.DefaultNodeAddr
	}
	if err := a.connect(addr); err != nil {
		_ = store.Close()
		return nil, err
	}

	a.restoreSession(ctx)
	return a, nil
}

// signingKey prefers the configured key and otherwise generates one on
// first use and keeps it in settings, so tokens survive restarts.
func signingKey(ctx context.Context, cfg *config.Config, st settings.Repository) ([]byte, error) {
	if cfg.SecretKey != "" {
		return []byte(cfg.SecretKey), nil
	}
	key, err := st.Get(ctx, settings.KeySecret)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = hex.EncodeToString(common.GenerateRandByteArray(32))
		if err := st.Set(ctx, settings.KeySecret, key); err != nil {
			return nil, err
		}
	}
	return []byte(key), nil
}

// connect points the node-facing services at addr. Presets are rebuilt
// too because their policy mirror lives on the node.
func (a *App) connect(addr string) error {
	c, err := client.NewHTTPClient(addr, client.Options{
		Timeout:           a.cfg.RequestTimeout,
		BasicAuthUser:     a.cfg.BasicAuthUser,
		BasicAuthPassword: a.cfg.BasicAuthPassword,
		Breaker:           a.cfg.BreakerEnabled,
		Logger:            a.log,
	})
	if err != nil {
		return err
	}

	if a.node != nil {
		_ = a.node.Close()
	}
	a.node = c
	a.nodeAddr = addr
	a.nodeSvc = services.NewNodeService(c, a.log)
	a.policy = services.NewPolicyService(c, a.log)

	var mirror services.PolicyService
	if a.cfg.MirrorPresets {
		mirror = a.policy
	}
	a.presets = services.NewPresetService(a.store.Presets, mirror, a.log)
	return nil
}

func (a *App) restoreSession(ctx context.Context) {
	token, err := a.store.Settings.Get(ctx, settings.KeyToken)
	if err != nil || token == "" {
		return
	}
	u, err := a.auth.UserFromToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			_ = a.store.Settings.Delete(ctx, settings.KeyToken)
		}
		a.log.Info(ctx, "saved session discarded", "error", err)
		return
	}
	a.session = &services.Session{User: *u, Token: token}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) userID() string {
	if a.session == nil {
		return ""
	}
	return a.session.User.ID
}

func (a *App) status() string {
	if a.session == nil {
		return "(" + a.nodeAddr + ")"
	}
	return fmt.Sprintf("(%s@%s)", a.session.User.Email, a.nodeAddr)
}

// Close releases the node client and the store.
func (a *App) Close() error {
	var errs []error
	if a.node != nil {
		errs = append(errs, a.node.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
