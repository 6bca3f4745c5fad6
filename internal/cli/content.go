package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/schooladmin/internal/admin"
)

// deleteOne は"<command> delete <id>"を処理する。
func (a *App) deleteOne(ctx context.Context, command string, args []string, del func(context.Context, string) error) error {
	fs := a.newFlagSet(command + " delete")
	positional, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(positional, 1, command+" delete <id>"); err != nil {
		return err
	}
	return del(ctx, positional[0])
}

func (a *App) runMessages(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	switch name {
	case "list":
		fs := a.newFlagSet("messages list")
		if _, err := parse(fs, rest); err != nil {
			return err
		}
		list, err := a.admin.ListMessages(ctx)
		if err != nil {
			return err
		}
		t := newTable(a.stdout, "S.NO", "ID", "TITLE", "CONTENT", "SENT BY", "AUDIENCE", "SENT AT")
		for _, m := range list {
			t.row(strconv.Itoa(m.SerialNo), m.ID, m.Title, truncate(m.Content, 40), m.SentBy, m.TargetAudience, formatTime(m.SentAt))
		}
		return t.flush()

	case "create", "update":
		fs := a.newFlagSet("messages " + name)
		var in admin.MessageInput
		fs.StringVar(&in.Title, "title", "", "message title")
		fs.StringVar(&in.Content, "content", "", "message body")
		fs.StringVar(&in.SentBy, "sent-by", "", "sender name")
		fs.StringVar(&in.TargetAudience, "audience", "", "target audience")
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		if name == "create" {
			if err := requireArgs(positional, 0, "messages create --title --content --sent-by --audience"); err != nil {
				return err
			}
			m, err := a.admin.CreateMessage(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, m.ID)
			return nil
		}
		if err := requireArgs(positional, 1, "messages update <id> --title --content --sent-by --audience"); err != nil {
			return err
		}
		_, err = a.admin.UpdateMessage(ctx, positional[0], in)
		return err

	case "delete":
		return a.deleteOne(ctx, "messages", rest, a.admin.DeleteMessage)

	default:
		return unknownSubcommand("messages", name, "list", "create", "update", "delete")
	}
}

// classUsage はクラス指定のヘルプ文。
var classUsage = "class (" + strings.Join(admin.ClassOptions, ", ") + ")"

func (a *App) runSyllabus(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	switch name {
	case "list":
		fs := a.newFlagSet("syllabus list")
		if _, err := parse(fs, rest); err != nil {
			return err
		}
		list, err := a.admin.ListSyllabi(ctx)
		if err != nil {
			return err
		}
		t := newTable(a.stdout, "S.NO", "ID", "CLASS", "PDF", "UPLOADED")
		for _, s := range list {
			t.row(strconv.Itoa(s.SerialNo), s.ID, s.Class, s.PDFURL, formatTime(s.CreatedAt))
		}
		return t.flush()

	case "upload", "update":
		fs := a.newFlagSet("syllabus " + name)
		class := fs.String("class", "", classUsage)
		file := fs.String("file", "", "path to the syllabus PDF")
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		want, usage := 0, "syllabus upload --class <class> --file <pdf>"
		if name == "update" {
			want, usage = 1, "syllabus update <id> --class <class> --file <pdf>"
		}
		if err := requireArgs(positional, want, usage); err != nil {
			return err
		}
		fileName, content, err := readPDFFlag(*file)
		if err != nil {
			return err
		}
		in := admin.SyllabusInput{Class: *class, FileName: fileName, PDF: content}
		var s *admin.Syllabus
		if name == "upload" {
			s, err = a.admin.UploadSyllabus(ctx, in)
		} else {
			s, err = a.admin.UpdateSyllabus(ctx, positional[0], in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, s.ID)
		return nil

	case "delete":
		return a.deleteOne(ctx, "syllabus", rest, a.admin.DeleteSyllabus)

	default:
		return unknownSubcommand("syllabus", name, "list", "upload", "update", "delete")
	}
}

func (a *App) runDatesheet(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	switch name {
	case "list":
		fs := a.newFlagSet("datesheet list")
		if _, err := parse(fs, rest); err != nil {
			return err
		}
		list, err := a.admin.ListDatesheets(ctx)
		if err != nil {
			return err
		}
		t := newTable(a.stdout, "S.NO", "ID", "EXAM", "YEAR", "CLASS", "PDF", "UPLOADED")
		for _, d := range list {
			t.row(strconv.Itoa(d.SerialNo), d.ID, d.ExamName, d.Year, d.Class, d.PDF, formatTime(d.CreatedAt))
		}
		return t.flush()

	case "upload", "update":
		fs := a.newFlagSet("datesheet " + name)
		exam := fs.String("exam", "", "exam name")
		year := fs.String("year", "", "exam year (e.g. 2024)")
		class := fs.String("class", "", classUsage)
		file := fs.String("file", "", "path to the datesheet PDF")
		positional, err := parse(fs, rest)
		if err != nil {
			return err
		}
		want, usage := 0, "datesheet upload --exam <name> --year <yyyy> --class <class> --file <pdf>"
		if name == "update" {
			want, usage = 1, "datesheet update <id> --exam <name> --year <yyyy> --class <class> --file <pdf>"
		}
		if err := requireArgs(positional, want, usage); err != nil {
			return err
		}
		fileName, content, err := readPDFFlag(*file)
		if err != nil {
			return err
		}
		in := admin.DatesheetInput{ExamName: *exam, Year: *year, Class: *class, FileName: fileName, PDF: content}
		var d *admin.Datesheet
		if name == "upload" {
			d, err = a.admin.UploadDatesheet(ctx, in)
		} else {
			d, err = a.admin.UpdateDatesheet(ctx, positional[0], in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, d.ID)
		return nil

	case "delete":
		return a.deleteOne(ctx, "datesheet", rest, a.admin.DeleteDatesheet)

	default:
		return unknownSubcommand("datesheet", name, "list", "upload", "update", "delete")
	}
}

func (a *App) runContacts(ctx context.Context, args []string) error {
	name, rest := subcommand(args, "list")
	switch name {
	case "list":
		fs := a.newFlagSet("contacts list")
		if _, err := parse(fs, rest); err != nil {
			return err
		}
		list, err := a.admin.ListContacts(ctx)
		if err != nil {
			return err
		}
		t := newTable(a.stdout, "S.NO", "ID", "NAME", "EMAIL", "SUBJECT", "MESSAGE", "RECEIVED")
		for _, c := range list {
			t.row(strconv.Itoa(c.SerialNo), c.ID, c.Name, c.Email, c.Subject, truncate(c.Message, 40), formatTime(c.CreatedAt))
		}
		return t.flush()

	case "delete":
		return a.deleteOne(ctx, "contacts", rest, a.admin.DeleteContact)

	default:
		return unknownSubcommand("contacts", name, "list", "delete")
	}
}
