package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/schooladmin/internal/admin"
)

func (a *App) runApplications(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	switch name {
	case "list":
		return a.listApplications(ctx, rest)
	case "show":
		return a.showApplication(ctx, rest)
	case "status":
		fs := a.newFlagSet("applications status")
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		if err := requireArgs(positional, 2, "applications status <id> <pending|approved|rejected>"); err != nil {
			return err
		}
		return a.admin.UpdateStatus(ctx, positional[0], positional[1])
	case "read":
		fs := a.newFlagSet("applications read")
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		if err := requireArgs(positional, 1, "applications read <id>"); err != nil {
			return err
		}
		return a.admin.MarkAsRead(ctx, positional[0])
	case "pdf", "admit-card", "files":
		return a.downloadApplication(ctx, name, rest)
	default:
		return unknownSubcommand("applications", name, "list", "show", "status", "read", "pdf", "admit-card", "files")
	}
}

func (a *App) listApplications(ctx context.Context, args []string) error {
	fs := a.newFlagSet("applications list")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", admin.DefaultPageSize, "applications per page")
	search := fs.String("search", "", "filter by student name, father name or district")
	status := fs.String("status", "", "filter by status (pending, approved, rejected)")
	read := fs.String("read", "", "filter by read state (read, unread)")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	switch *read {
	case admin.ReadAny, admin.ReadOnly, admin.UnreadOnly:
	default:
		return fmt.Errorf("%w: --read must be read or unread", ErrUsage)
	}

	res, err := a.admin.ListApplications(ctx, *page, *limit)
	if err != nil {
		return err
	}
	items := admin.FilterApplications(res.Items, admin.Filter{Search: *search, Status: *status, Read: *read})

	t := newTable(a.stdout, "S.NO", "ID", "STUDENT", "FATHER", "DISTRICT", "CLASS", "STATUS", "READ", "SUBMITTED")
	for _, app := range items {
		t.row(strconv.Itoa(app.SerialNo), app.ID, app.StudentName, app.FatherName, app.District,
			app.Class, app.ApplicationStatus, readStatus(app.IsRead), formatTime(app.CreatedAt))
	}
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\npage %d, %d of %d application(s)", res.Page, len(items), res.Total)
	if res.HasMore {
		fmt.Fprintf(a.stdout, ", next: --page %d", res.Page+1)
	}
	fmt.Fprintln(a.stdout)
	return nil
}

func (a *App) showApplication(ctx context.Context, args []string) error {
	fs := a.newFlagSet("applications show")
	keepUnread := fs.Bool("keep-unread", false, "do not mark the application as read")
	positional, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(positional, 1, "applications show <id>"); err != nil {
		return err
	}

	detail, err := a.admin.GetApplication(ctx, positional[0])
	if err != nil {
		return err
	}
	t := newTable(a.stdout, "FIELD", "VALUE")
	for _, k := range detail.FieldNames() {
		t.row(k, fmt.Sprint(detail.Fields[k]))
	}
	if err := t.flush(); err != nil {
		return err
	}

	if *keepUnread || detail.IsRead {
		return nil
	}
	return a.admin.MarkAsRead(ctx, detail.ID)
}

func (a *App) downloadApplication(ctx context.Context, kind string, args []string) error {
	fs := a.newFlagSet("applications " + kind)
	out := fs.String("out", ".", "directory to save the file into")
	studentName := fs.String("name", "", "student name used in the admit card file name")
	positional, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(positional, 1, "applications "+kind+" <id>"); err != nil {
		return err
	}
	id := positional[0]

	var f *admin.File
	switch kind {
	case "pdf":
		f, err = a.admin.DownloadPDF(ctx, id)
	case "admit-card":
		name := *studentName
		if name == "" {
			detail, derr := a.admin.GetApplication(ctx, id)
			if derr != nil {
				return derr
			}
			name = detail.StudentName
		}
		f, err = a.admin.DownloadAdmitCard(ctx, id, name)
	default:
		f, err = a.admin.DownloadFiles(ctx, id)
	}
	if err != nil {
		return err
	}
	return a.saveFile(*out, f)
}
