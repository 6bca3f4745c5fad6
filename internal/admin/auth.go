package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
	"github.com/nao1215/schooladmin/pkg/session"
)

var (
	// ErrLoginFailed はサーバーが認証を拒否したことを表す。
	ErrLoginFailed = errors.New("ログインに失敗しました")
	// ErrNotLoggedIn はログイン中の管理者がいないことを表す。
	ErrNotLoggedIn = errors.New("ログインしていません")
	// ErrOpaqueToken はトークンがJWTとして解釈できないことを表す。
	ErrOpaqueToken = errors.New("JWT形式のトークンではありません")
)

// defaultLoginFailure はサーバーが理由を返さなかった場合のログイン失敗メッセージ。
const defaultLoginFailure = "Invalid credentials. Please try again."

// Profile はログイン中の管理者情報。
type Profile struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DisplayName は表示名を返す。名前が空の場合は"Admin"。
func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return "Admin"
	}
	return p.Name
}

// authState はセッションストアのKeyProfileに保存する認証状態。
type authState struct {
	Current    Profile `json:"current"`
	IsLoggedIn bool    `json:"isLoggedIn"`
}

// credentials はログインの入力値。
type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginBody はログインエンドポイントのレスポンスボディ。
type loginBody struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Result  struct {
		Token string  `json:"token"`
		Admin Profile `json:"admin"`
	} `json:"result"`
}

// Login は管理者としてログインし、トークンと管理者情報をセッションストアに保存する。
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	in := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := c.validate.Struct(in); err != nil {
		return nil, c.invalid("Please enter a valid email and password.", err)
	}

	path := fmt.Sprintf("login?timestamp=%d", c.now().UnixMilli())
	env := c.gw.Post(ctx, path, in)
	if err := env.Err(); err != nil {
		return nil, err
	}

	body, err := httpclient.DecodeData[loginBody](env)
	if err != nil || !body.Success || body.Result.Token == "" {
		reason := defaultLoginFailure
		if body != nil && strings.TrimSpace(body.Msg) != "" {
			reason = strings.TrimSpace(body.Msg)
		}
		c.sink.Notify(notify.Notification{Level: notify.LevelError, Title: "Login Failed", Text: reason})
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, reason)
	}

	if err := c.gw.SetCredential(ctx, body.Result.Token); err != nil {
		return nil, err
	}
	profile := body.Result.Admin
	state, err := json.Marshal(authState{Current: profile, IsLoggedIn: true})
	if err != nil {
		return nil, fmt.Errorf("管理者情報のシリアライズに失敗: %w", err)
	}
	if err := c.store.Set(ctx, session.KeyProfile, string(state)); err != nil {
		return nil, fmt.Errorf("管理者情報の保存に失敗: %w", err)
	}

	c.sink.Notify(notify.Success("Login Successful", fmt.Sprintf("Welcome back, %s!", profile.DisplayName())))
	return &profile, nil
}

// Logout はセッション状態をすべて削除する。サーバーとの通信は行わない。
func (c *Client) Logout(ctx context.Context) error {
	if err := c.gw.ClearCredential(ctx); err != nil {
		c.sink.Notify(notify.Notification{Level: notify.LevelError, Title: "Logout Error", Text: "There was a problem logging out."})
		return err
	}
	c.sink.Notify(notify.Success("Logged Out", "You have been successfully logged out."))
	return nil
}

// CurrentProfile はログイン中の管理者情報を返す。
func (c *Client) CurrentProfile(ctx context.Context) (*Profile, error) {
	raw, ok, err := c.store.Get(ctx, session.KeyProfile)
	if err != nil {
		return nil, fmt.Errorf("管理者情報の読み出しに失敗: %w", err)
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	var state authState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("管理者情報の解析に失敗: %w", err)
	}
	if !state.IsLoggedIn {
		return nil, ErrNotLoggedIn
	}
	return &state.Current, nil
}

// TokenInfo はトークンから読み取れる情報。署名は検証していない。
type TokenInfo struct {
	// Subject はトークンの対象者（管理者ID）。
	Subject string
	// Issuer はトークンの発行者。
	Issuer string
	// IssuedAt は発行日時。不明な場合はゼロ値。
	IssuedAt time.Time
	// ExpiresAt は有効期限。不明な場合はゼロ値。
	ExpiresAt time.Time
}

// Expired はnow時点で有効期限が切れているかどうかを返す。期限がない場合はfalse。
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ParseToken はJWTのクレームを署名検証なしで読み取る。
// 有効性の判断はサーバーが行うため、表示用途にのみ使うこと。
func ParseToken(token string) (*TokenInfo, error) {
	token = httpclient.SanitizeCredential(token)
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := &TokenInfo{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// TokenInfo は保存中のトークンを読み取る。
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	return ParseToken(c.gw.Credential(ctx))
}
