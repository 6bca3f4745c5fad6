// Package cli はschooladminコマンドのサブコマンドを実装する。
//
// 失敗はGatewayまたはadminパッケージが通知済みのため、ここでは重ねて表示しない。
// 通知されていないエラー（使い方の誤りやファイル操作の失敗）だけを通知する。
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/schooladmin/internal/admin"
	"github.com/nao1215/schooladmin/internal/dashboard"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
)

// ErrUsage はコマンドの使い方が誤っていることを表す。
var ErrUsage = errors.New("usage error")

// App はCLIアプリケーション。
type App struct {
	// admin は管理APIクライアント。
	admin *admin.Client
	// dashboard はダッシュボードの更新処理。
	dashboard *dashboard.Service
	// sink は通知先。
	sink notify.Sink
	// stdin はパスワード入力を読むリーダー。
	stdin io.Reader
	// stdout は表や結果の出力先。
	stdout io.Writer
	// stderr は使い方の出力先。
	stderr io.Writer
}

// New は新しいAppを生成する。
func New(client *admin.Client, dash *dashboard.Service, sink notify.Sink, stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		admin:     client,
		dashboard: dash,
		sink:      sink,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
	}
}

// command はサブコマンドの実装。
type command struct {
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

// commands はサブコマンドの一覧。
var commands = map[string]command{
	"login":        {"log in as an administrator", (*App).runLogin},
	"logout":       {"clear the stored session", (*App).runLogout},
	"whoami":       {"show the logged-in administrator", (*App).runWhoami},
	"dashboard":    {"refresh dashboard totals and record increases", (*App).runDashboard},
	"alerts":       {"list and acknowledge dashboard alerts", (*App).runAlerts},
	"applications": {"manage admission applications", (*App).runApplications},
	"messages":     {"manage announcements", (*App).runMessages},
	"syllabus":     {"manage syllabus PDFs", (*App).runSyllabus},
	"datesheet":    {"manage exam datesheets", (*App).runDatesheet},
	"contacts":     {"manage contact form submissions", (*App).runContacts},
}

// commandOrder はヘルプの表示順。
var commandOrder = []string{
	"login", "logout", "whoami", "dashboard", "alerts",
	"applications", "messages", "syllabus", "datesheet", "contacts",
}

// Execute はコマンドを実行して終了コードを返す。
func (a *App) Execute(ctx context.Context, args []string) int {
	err := a.Run(ctx, args)
	if err == nil {
		return 0
	}
	if !reported(err) {
		a.sink.Notify(notify.Error(err.Error()))
	}
	return 1
}

// Run はコマンドを実行する。argsにはプログラム名を含めない。
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *App) usage() {
	fmt.Fprintln(a.stderr, "Usage: schooladmin <command> [subcommand] [flags]")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(a.stderr, "  %-13s %s\n", name, commands[name].summary)
	}
}

// reported はerrが既に通知済みかどうかを返す。
func reported(err error) bool {
	var re *httpclient.RequestError
	return errors.As(err, &re) ||
		errors.Is(err, admin.ErrInvalidInput) ||
		errors.Is(err, admin.ErrLoginFailed) ||
		errors.Is(err, admin.ErrUnexpectedResponse) ||
		errors.Is(err, flag.ErrHelp)
}

// newFlagSet はエラー時に使い方をstderrへ出すFlagSetを生成する。
func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse はフラグを解析する。位置引数の後ろに置かれたフラグも受け付ける。
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// subcommand は先頭の引数をサブコマンド名として取り出す。
func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fallback, args
	}
	return args[0], args[1:]
}

// requireArgs は位置引数の数を検査する。
func requireArgs(positional []string, n int, usage string) error {
	if len(positional) != n {
		return fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	return nil
}

// unknownSubcommand はサブコマンド名の誤りを表すエラーを返す。
func unknownSubcommand(command, name string, known ...string) error {
	return fmt.Errorf("%w: unknown %s subcommand %q (want one of: %s)", ErrUsage, command, name, strings.Join(known, ", "))
}

// readPDFFlag は--fileで指定されたPDFを読む。
func readPDFFlag(path string) (string, []byte, error) {
	if path == "" {
		return "", nil, fmt.Errorf("%w: --file is required", ErrUsage)
	}
	name, content, err := admin.LoadPDF(path)
	if errors.Is(err, admin.ErrNotPDF) {
		return "", nil, fmt.Errorf("please upload a valid PDF file: %w", err)
	}
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return "", nil, fmt.Errorf("file not found: %s", path)
	}
	return name, content, err
}
