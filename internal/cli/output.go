package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/schooladmin/internal/admin"
)

// timeLayout は一覧に表示する日時の書式。
const timeLayout = "2006-01-02 15:04"

// table は列を揃えて出力する表。
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...string) {
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, "\t", " ")
	}
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

// formatTime は日時を表示用に整形する。ゼロ値は"-"。
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// truncate は長い文字列をn文字で切り詰める。
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// readStatus は既読状態の表示文字列を返す。
func readStatus(read bool) string {
	if read {
		return "read"
	}
	return "unread"
}

// saveFile はダウンロードしたファイルをdirに保存し、保存先を出力する。
func (a *App) saveFile(dir string, f *admin.File) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Content, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "saved %s (%d bytes)\n", path, len(f.Content))
	return nil
}
