package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/nao1215/schooladmin/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationTable はセッションストア用のバージョン管理テーブル名。
const migrationTable = "session_migrations"

// SQLiteStore はSQLiteファイルに状態を永続化するStore。
// プロセスを再起動しても値が残る。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLite はpathのSQLiteファイルを開き、スキーマを適用する。
// pathに":memory:"を指定するとプロセス内だけのストアになる。
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore は既存のDB接続からSQLiteStoreを生成する。
// 同じDBを他のストアと共有できる。
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if err := migration.Run(ctx, db, migrationFS, "migrations", migrationTable); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB は内部のDB接続を返す。
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close はDB接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get はキーに対応する値を返す。
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session_values WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("セッション値の取得に失敗: key=%s: %w", key, err)
	}
	return value, true, nil
}

// Set はキーに値を書き込む。既存の値は上書きする。
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_values (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("セッション値の保存に失敗: key=%s: %w", key, err)
	}
	return nil
}

// Delete はキーを削除する。
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_values WHERE key = ?", key); err != nil {
		return fmt.Errorf("セッション値の削除に失敗: key=%s: %w", key, err)
	}
	return nil
}

// Clear はすべてのキーを削除する。
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_values"); err != nil {
		return fmt.Errorf("セッションのクリアに失敗: %w", err)
	}
	return nil
}
