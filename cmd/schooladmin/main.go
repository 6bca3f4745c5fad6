// 学校管理コンソールのエントリポイント。
// 管理APIにログインし、入学申請、お知らせ、シラバス、試験日程、問い合わせを
// 端末から管理する。セッションとダッシュボードの状態はSQLiteに保存する。
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nao1215/schooladmin/internal/admin"
	"github.com/nao1215/schooladmin/internal/cli"
	"github.com/nao1215/schooladmin/internal/config"
	"github.com/nao1215/schooladmin/internal/dashboard"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
	"github.com/nao1215/schooladmin/pkg/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	sink := notify.NewTerminal(os.Stderr)
	fail := func(format string, args ...any) int {
		sink.Notify(notify.Error(fmt.Sprintf(format, args...)))
		return 1
	}

	cfg, err := config.Load(os.Getenv("SCHOOLADMIN_ENV_FILE"))
	if err != nil {
		return fail("failed to load configuration: %v", err)
	}
	if !cfg.Debug {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.StateDB), 0o700); err != nil {
		return fail("failed to create state directory: %v", err)
	}
	store, err := session.OpenSQLite(ctx, cfg.StateDB)
	if err != nil {
		return fail("failed to open session store: %v", err)
	}
	defer store.Close()

	alerts, err := dashboard.NewAlertStore(ctx, store.DB())
	if err != nil {
		return fail("failed to open alert store: %v", err)
	}

	gw := httpclient.New(httpclient.Config{
		BaseURL:              cfg.APIURL,
		Timeout:              cfg.Timeout,
		CredentialHeaderName: cfg.CredentialHeader,
		CredentialKey:        cfg.CredentialKey,
	}, httpclient.WithStore(store), httpclient.WithSink(sink))
	client := admin.New(gw, store, sink)

	app := cli.New(client, dashboard.NewService(client, alerts), sink, os.Stdin, os.Stdout, os.Stderr)
	return app.Execute(ctx, os.Args[1:])
}
