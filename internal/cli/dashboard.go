package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/schooladmin/internal/dashboard"
)

func (a *App) runDashboard(ctx context.Context, args []string) error {
	fs := a.newFlagSet("dashboard")
	if _, err := parse(fs, args); err != nil {
		return err
	}

	res, err := a.dashboard.Refresh(ctx)
	if err != nil {
		return err
	}
	t := newTable(a.stdout, "METRIC", "VALUE")
	for _, total := range res.Totals {
		t.row(total.Counter.Label, strconv.Itoa(total.Value))
	}
	if err := t.flush(); err != nil {
		return err
	}

	unread, err := a.dashboard.Store().UnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\n%d new alert(s), %d unread\n", len(res.NewAlerts), unread)
	return nil
}

func (a *App) runAlerts(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	store := a.dashboard.Store()

	switch name {
	case "list", "unread":
		fs := a.newFlagSet("alerts " + name)
		limit := fs.Int("limit", 0, "show only the latest N alerts")
		if _, err := parse(fs, rest); err != nil {
			return err
		}
		var (
			alerts []dashboard.Alert
			err    error
		)
		switch {
		case name == "unread":
			alerts, err = store.Unread(ctx)
		case *limit > 0:
			alerts, err = store.Latest(ctx, *limit)
		default:
			alerts, err = store.List(ctx)
		}
		if err != nil {
			return err
		}
		return a.printAlerts(alerts)

	case "read", "toggle":
		fs := a.newFlagSet("alerts " + name)
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		if err := requireArgs(positional, 1, "alerts "+name+" <id>"); err != nil {
			return err
		}
		if name == "read" {
			return store.MarkRead(ctx, positional[0])
		}
		read, err := store.ToggleRead(ctx, positional[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s is now %s\n", positional[0], readStatus(read))
		return nil

	case "read-all":
		n, err := store.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "marked %d alert(s) as read\n", n)
		return nil

	default:
		return unknownSubcommand("alerts", name, "list", "unread", "read", "toggle", "read-all")
	}
}

func (a *App) printAlerts(alerts []dashboard.Alert) error {
	if len(alerts) == 0 {
		fmt.Fprintln(a.stdout, "No notifications")
		return nil
	}
	t := newTable(a.stdout, "ID", "STATUS", "CREATED", "TITLE", "MESSAGE")
	for _, al := range alerts {
		t.row(al.ID, readStatus(al.Read), formatTime(al.CreatedAt), al.Title, al.Message)
	}
	return t.flush()
}
