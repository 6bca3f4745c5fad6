package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/schooladmin/internal/admin"
)

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	email := fs.String("email", "", "administrator email")
	password := fs.String("password", "", "password (read from stdin when omitted)")
	if _, err := parse(fs, args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(a.stderr, "Password: ")
		sc := bufio.NewScanner(a.stdin)
		if sc.Scan() {
			pw = strings.TrimRight(sc.Text(), "\r")
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	profile, err := a.admin.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "logged in as %s <%s>\n", profile.DisplayName(), profile.Email)
	return nil
}

func (a *App) runLogout(ctx context.Context, args []string) error {
	fs := a.newFlagSet("logout")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	if err := a.admin.Logout(ctx); err != nil {
		return err
	}
	return a.dashboard.Store().Reset(ctx)
}

func (a *App) runWhoami(ctx context.Context, args []string) error {
	fs := a.newFlagSet("whoami")
	if _, err := parse(fs, args); err != nil {
		return err
	}

	profile, err := a.admin.CurrentProfile(ctx)
	if errors.Is(err, admin.ErrNotLoggedIn) {
		return errors.New("not logged in. Run `schooladmin login` first")
	}
	if err != nil {
		return err
	}

	t := newTable(a.stdout, "FIELD", "VALUE")
	t.row("name", profile.DisplayName())
	t.row("email", profile.Email)
	t.row("id", profile.ID)

	info, err := a.admin.TokenInfo(ctx)
	switch {
	case errors.Is(err, admin.ErrOpaqueToken):
		t.row("token", "opaque")
	case errors.Is(err, admin.ErrNotLoggedIn):
		t.row("token", "missing")
	case err != nil:
		return err
	default:
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		t.row("token", state)
		t.row("expires", formatTime(info.ExpiresAt))
	}
	return t.flush()
}
