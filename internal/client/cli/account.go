package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/settings"
	"github.com/dmitrijs2005/anylogcli/internal/client/services"
	"github.com/dmitrijs2005/anylogcli/internal/common"
)

func (a *App) signup(ctx context.Context, _ call) error {
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	first, err := GetSimpleText(a.in, "First name (optional)", a.out)
	if err != nil {
		return err
	}
	last, err := GetSimpleText(a.in, "Last name (optional)", a.out)
	if err != nil {
		return err
	}

	u, err := a.auth.Signup(ctx, services.SignupRequest{
		Email:     email,
		Password:  string(password),
		FirstName: first,
		LastName:  last,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created, you can log in now\n", u.Email)
	return nil
}

func (a *App) login(ctx context.Context, _ call) error {
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	if err := a.store.Settings.Set(ctx, settings.KeyToken, sess.Token); err != nil {
		return err
	}
	a.session = sess
	fmt.Fprintf(a.out, "Logged in as %s\n", sess.User.Email)
	return nil
}

func (a *App) logout(ctx context.Context, _ call) error {
	if err := a.auth.Logout(ctx, a.session.Token); err != nil {
		return err
	}
	if err := a.store.Settings.Delete(ctx, settings.KeyToken); err != nil {
		return err
	}
	a.session = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) whoami(_ context.Context, _ call) error {
	u := a.session.User
	fmt.Fprintf(a.out, "%s (%s %s) id=%s\n", u.Email, u.FirstName, u.LastName, u.ID)
	return nil
}
