// Package config はschooladminの設定を環境変数（と任意の.envファイル）から読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultAPIURL は管理APIのデフォルトのベースURL。
const DefaultAPIURL = "https://api-pil.site/api/admin/"

// Config はschooladminの実行時設定。
type Config struct {
	// APIURL は管理APIのベースURL。
	APIURL string `env:"SCHOOLADMIN_API_URL" envDefault:"https://api-pil.site/api/admin/" validate:"required,url"`
	// Timeout は1リクエストあたりのタイムアウト。
	Timeout time.Duration `env:"SCHOOLADMIN_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	// CredentialHeader は認証トークンを送るヘッダー名。
	CredentialHeader string `env:"SCHOOLADMIN_CREDENTIAL_HEADER" envDefault:"Authorization" validate:"required"`
	// CredentialKey はセッションストア上の認証トークンのキー。
	CredentialKey string `env:"SCHOOLADMIN_CREDENTIAL_KEY" envDefault:"x-auth-token" validate:"required"`
	// StateDB はセッションとダッシュボード状態を保存するSQLiteファイルのパス。
	// 空の場合はユーザー設定ディレクトリ配下を使う。
	StateDB string `env:"SCHOOLADMIN_STATE_DB"`
	// Debug がtrueの場合は通信ログを標準エラー出力に書く。
	Debug bool `env:"SCHOOLADMIN_DEBUG" envDefault:"false"`
}

// Load は.envファイル（存在すれば）と環境変数から設定を読み込み、検証する。
// envFileが空の場合はカレントディレクトリの.envを試す。
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}

	if cfg.StateDB == "" {
		path, err := defaultStateDB()
		if err != nil {
			return nil, err
		}
		cfg.StateDB = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}
	return nil
}

// defaultStateDB はユーザー設定ディレクトリ配下の状態ファイルのパスを返す。
func defaultStateDB() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("設定ディレクトリの取得に失敗: %w", err)
	}
	return filepath.Join(dir, "schooladmin", "state.db"), nil
}
