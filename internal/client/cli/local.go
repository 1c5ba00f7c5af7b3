package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/anylogcli/internal/client/services"
	"github.com/dmitrijs2005/anylogcli/internal/common"
)

func (a *App) addBookmark(ctx context.Context, c call) error {
	_, created, err := a.bookmarks.Add(ctx, a.userID(), c.args[0])
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(a.out, "%s is already bookmarked\n", c.args[0])
		return nil
	}
	fmt.Fprintf(a.out, "Bookmarked %s\n", c.args[0])
	return nil
}

func (a *App) listBookmarks(ctx context.Context, _ call) error {
	bms, err := a.bookmarks.List(ctx, a.userID())
	if err != nil {
		return err
	}
	if len(bms) == 0 {
		fmt.Fprintln(a.out, "(none)")
	}
	for _, b := range bms {
		fmt.Fprintf(a.out, "%-25s %s\n", b.Node, b.Description)
	}
	return nil
}

func (a *App) describeBookmark(ctx context.Context, c call) error {
	return a.bookmarks.UpdateDescription(ctx, a.userID(), c.args[0], c.rest(1))
}

func (a *App) deleteBookmark(ctx context.Context, c call) error {
	return a.bookmarks.Delete(ctx, a.userID(), c.args[0])
}

func (a *App) addGroup(ctx context.Context, c call) error {
	g, err := a.presets.CreateGroup(ctx, a.userID(), c.rest(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Group %s created (id %s)\n", g.GroupName, g.ID)
	return nil
}

func (a *App) listGroups(ctx context.Context, _ call) error {
	groups, err := a.presets.ListGroups(ctx, a.userID())
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "(none)")
	}
	for _, g := range groups {
		fmt.Fprintf(a.out, "%s  %s\n", g.ID, g.GroupName)
	}
	return nil
}

func (a *App) deleteGroup(ctx context.Context, c call) error {
	n, err := a.presets.DeleteGroup(ctx, a.userID(), c.args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Group deleted with %d presets\n", n)
	return nil
}

func (a *App) addPreset(ctx context.Context, c call) error {
	p, err := a.presets.CreatePreset(ctx, a.userID(), services.PresetRequest{
		GroupID: c.args[0],
		Type:    c.args[1],
		Button:  c.args[2],
		Command: c.rest(3),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Preset %s saved (id %s)\n", p.Button, p.ID)
	return nil
}

func (a *App) listPresets(ctx context.Context, c call) error {
	ps, err := a.presets.ListPresets(ctx, a.userID(), c.args[0])
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		fmt.Fprintln(a.out, "(none)")
	}
	for _, p := range ps {
		fmt.Fprintf(a.out, "%s  %-15s %-4s %s\n", p.ID, p.Button, p.Type, p.Command)
	}
	return nil
}

func (a *App) deletePreset(ctx context.Context, c call) error {
	return a.presets.DeletePreset(ctx, a.userID(), c.args[0])
}

// runPreset sends the saved command behind a button.
func (a *App) runPreset(ctx context.Context, c call) error {
	ps, err := a.presets.ListPresets(ctx, a.userID(), c.args[0])
	if err != nil {
		return err
	}
	button := c.rest(1)
	for _, p := range ps {
		if p.Button == button {
			return a.send(ctx, p.Type, p.Command)
		}
	}
	return fmt.Errorf("preset %q: %w", button, common.ErrNotFound)
}

func (a *App) policyGroups(ctx context.Context, _ call) error {
	groups, err := a.policy.Groups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "(none)")
	}
	for _, g := range groups {
		fmt.Fprintf(a.out, "[%s]\n", g.Name)
		buttons := make([]string, 0, len(g.Presets))
		for name := range g.Presets {
			buttons = append(buttons, name)
		}
		sort.Strings(buttons)
		for _, name := range buttons {
			p := g.Presets[name]
			fmt.Fprintf(a.out, "  %-15s %-4s %s\n", name, p.Type, p.Command)
		}
	}
	return nil
}
