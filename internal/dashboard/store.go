package dashboard

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/schooladmin/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrAlertNotFound は指定したアラートが存在しないことを表す。
var ErrAlertNotFound = errors.New("アラートが見つかりません")

// Alert は集計値の増加アラート。
type Alert struct {
	// ID はアラートの一意識別子（UUID）。
	ID string
	// CounterKey は増加した集計項目のキー。
	CounterKey string
	// Title はアラートのタイトル（例: "Increase in Total Users"）。
	Title string
	// Message はアラートの本文。
	Message string
	// Increase は増加量。
	Increase int
	// Read は既読状態。
	Read bool
	// CreatedAt は作成日時。
	CreatedAt time.Time
}

// AlertStore はスナップショットとアラートをSQLiteに保存する。
type AlertStore struct {
	db *sql.DB
}

// NewAlertStore はマイグレーションを適用してAlertStoreを生成する。
// dbはセッションストアと共有してよい。
func NewAlertStore(ctx context.Context, db *sql.DB) (*AlertStore, error) {
	if err := migration.Run(ctx, db, migrations, "migrations", "dashboard_migrations"); err != nil {
		return nil, fmt.Errorf("ダッシュボードのスキーマ適用に失敗: %w", err)
	}
	return &AlertStore{db: db}, nil
}

// Snapshot は前回保存した集計値を返す。未保存の項目は含まれない。
func (s *AlertStore) Snapshot(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT counter_key, value FROM dashboard_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("スナップショットの取得に失敗: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			value int
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("スナップショットの読み取りに失敗: %w", err)
		}
		snapshot[key] = value
	}
	return snapshot, rows.Err()
}

// Commit は新しいアラートと最新の集計値を1つのトランザクションで保存する。
func (s *AlertStore) Commit(ctx context.Context, totals []Total, alerts []Alert, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dashboard_alerts (id, counter_key, title, message, increase, is_read, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.CounterKey, a.Title, a.Message, a.Increase, boolToInt(a.Read), a.CreatedAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("アラートの保存に失敗: %w", err)
		}
	}
	for _, t := range totals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dashboard_snapshots (counter_key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(counter_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			t.Counter.Key, t.Value, at.UnixNano(),
		); err != nil {
			return fmt.Errorf("スナップショットの保存に失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return nil
}

// alertColumns はアラートのSELECT対象列。
const alertColumns = `id, counter_key, title, message, increase, is_read, created_at`

// alertOrder は新しい更新のアラートを先に、同じ更新内は生成順に並べる。
const alertOrder = ` ORDER BY created_at DESC, rowid ASC`

// List はすべてのアラートを新しい順で返す。
func (s *AlertStore) List(ctx context.Context) ([]Alert, error) {
	return s.query(ctx, `SELECT `+alertColumns+` FROM dashboard_alerts`+alertOrder)
}

// Unread は未読のアラートを新しい順で返す。
func (s *AlertStore) Unread(ctx context.Context) ([]Alert, error) {
	return s.query(ctx, `SELECT `+alertColumns+` FROM dashboard_alerts WHERE is_read = 0`+alertOrder)
}

// Latest は新しい順にn件のアラートを返す。
func (s *AlertStore) Latest(ctx context.Context, n int) ([]Alert, error) {
	if n <= 0 {
		return []Alert{}, nil
	}
	return s.query(ctx, `SELECT `+alertColumns+` FROM dashboard_alerts`+alertOrder+` LIMIT ?`, n)
}

// UnreadCount は未読アラートの件数を返す。
func (s *AlertStore) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboard_alerts WHERE is_read = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("未読件数の取得に失敗: %w", err)
	}
	return n, nil
}

// MarkRead は指定したアラートを既読にする。
func (s *AlertStore) MarkRead(ctx context.Context, id string) error {
	return s.setRead(ctx, id, true)
}

// ToggleRead は指定したアラートの既読状態を反転し、反転後の状態を返す。
func (s *AlertStore) ToggleRead(ctx context.Context, id string) (bool, error) {
	var read int
	err := s.db.QueryRowContext(ctx, `SELECT is_read FROM dashboard_alerts WHERE id = ?`, id).Scan(&read)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrAlertNotFound
	}
	if err != nil {
		return false, fmt.Errorf("アラートの取得に失敗: %w", err)
	}
	next := read == 0
	if err := s.setRead(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}

// MarkAllRead はすべてのアラートを既読にし、更新した件数を返す。
func (s *AlertStore) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE dashboard_alerts SET is_read = 1 WHERE is_read = 0`)
	if err != nil {
		return 0, fmt.Errorf("全アラートの既読処理に失敗: %w", err)
	}
	return res.RowsAffected()
}

func (s *AlertStore) setRead(ctx context.Context, id string, read bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dashboard_alerts SET is_read = ? WHERE id = ?`, boolToInt(read), id)
	if err != nil {
		return fmt.Errorf("アラートの既読処理に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("アラートの既読処理に失敗: %w", err)
	}
	if n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (s *AlertStore) query(ctx context.Context, query string, args ...any) ([]Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("アラートの取得に失敗: %w", err)
	}
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		var (
			a       Alert
			read    int
			created int64
		)
		if err := rows.Scan(&a.ID, &a.CounterKey, &a.Title, &a.Message, &a.Increase, &read, &created); err != nil {
			return nil, fmt.Errorf("アラートの読み取りに失敗: %w", err)
		}
		a.Read = read != 0
		a.CreatedAt = time.Unix(0, created).UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Reset はスナップショットとアラートをすべて削除する。ログアウト時に使う。
func (s *AlertStore) Reset(ctx context.Context) error {
	for _, table := range []string{"dashboard_alerts", "dashboard_snapshots"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("%sの削除に失敗: %w", table, err)
		}
	}
	return nil
}
