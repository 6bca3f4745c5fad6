package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/schooladmin/pkg/notify"
	"github.com/nao1215/schooladmin/pkg/session"
)

const (
	// DefaultTimeout は1リクエストあたりのタイムアウト。
	DefaultTimeout = 30 * time.Second
	// DefaultCredentialHeaderName はトークンを送るヘッダー名。
	DefaultCredentialHeaderName = "Authorization"
)

// Config はGatewayの設定。
type Config struct {
	// BaseURL は相対パスの前に付けるルートURL（例: "https://api-pil.site/api/admin/"）。
	BaseURL string
	// Timeout は1リクエストを打ち切るまでの時間。0の場合はDefaultTimeout。
	Timeout time.Duration
	// CredentialHeaderName はトークンを送るヘッダー名。空の場合はAuthorization。
	CredentialHeaderName string
	// CredentialKey はセッションストア上のトークンのキー。空の場合はsession.KeyCredential。
	CredentialKey string
}

// Client は管理APIへの認証付きHTTPクライアント（Gateway）。
// 生成後は状態を変更しないため、複数のgoroutineから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。
	baseURL string
	// credentialHeader はトークンを送るヘッダー名。
	credentialHeader string
	// credentialKey はセッションストア上のトークンのキー。
	credentialKey string
	// store は認証トークンを保持するセッションストア。
	store session.Store
	// sink は失敗時の通知先。
	sink notify.Sink
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithStore はセッションストアを指定する。
func WithStore(s session.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithSink は通知Sinkを指定する。
func WithSink(s notify.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
// 差し替えたクライアントのTimeoutはそのまま使われる。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New は新しいGatewayを生成する。
// ストアを指定しない場合はメモリ上のストア、Sinkを指定しない場合は通知を捨てる。
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	header := cfg.CredentialHeaderName
	if header == "" {
		header = DefaultCredentialHeaderName
	}
	key := cfg.CredentialKey
	if key == "" {
		key = session.KeyCredential
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:          cfg.BaseURL,
		credentialHeader: header,
		credentialKey:    key,
		store:            session.NewMemoryStore(),
		sink:             notify.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get はGETリクエストを送信する。
func (c *Client) Get(ctx context.Context, path string) Envelope {
	return c.Request(ctx, http.MethodGet, path, nil, nil)
}

// Post はPOSTリクエストを送信する。
func (c *Client) Post(ctx context.Context, path string, body any) Envelope {
	return c.Request(ctx, http.MethodPost, path, body, nil)
}

// Put はPUTリクエストを送信する。
func (c *Client) Put(ctx context.Context, path string, body any) Envelope {
	return c.Request(ctx, http.MethodPut, path, body, nil)
}

// Delete はDELETEリクエストを送信する。
func (c *Client) Delete(ctx context.Context, path string) Envelope {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Request は唯一の送信口。pathはBaseURLからの相対パス（絶対URLはそのまま使う）。
// bodyはnil、JSONにシリアライズ可能な値、または*Multipartを受け付ける。
//
// 結果は常にEnvelopeで返る。失敗時はエラー通知をちょうど1回送り、
// 成功時は何も通知しない（成功通知を出すかは呼び出し元が決める）。
func (c *Client) Request(ctx context.Context, method, path string, body any, extraHeaders http.Header) Envelope {
	env := c.do(ctx, method, path, body, extraHeaders)
	if !env.Success {
		c.sink.Notify(notify.Error(env.Message))
	}
	return env
}

// do はリクエストの組み立て、トークン付与、送信、分類を行う共通処理。
func (c *Client) do(ctx context.Context, method, path string, body any, extraHeaders http.Header) Envelope {
	req, err := c.newRequest(ctx, method, path, body, extraHeaders)
	if err != nil {
		log.Printf("[Gateway] リクエストの作成に失敗: %s %s: %v", method, path, err)
		return ClassifyError(&ConstructionError{Err: err})
	}
	AttachCredential(req, c.Credential(ctx), c.credentialHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Gateway] 応答がありません: %s %s: %v", method, req.URL.Redacted(), err)
		return ClassifyError(&NetworkError{Err: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Gateway] レスポンスの読み取りに失敗: %s %s: %v", method, req.URL.Redacted(), err)
		return ClassifyError(&NetworkError{Err: err})
	}

	env := ClassifyResponse(resp.StatusCode, respBody)
	env.ContentType = resp.Header.Get("Content-Type")
	return env
}

// newRequest はボディの種類に応じてContent-Typeを決め、HTTPリクエストを組み立てる。
func (c *Client) newRequest(ctx context.Context, method, path string, body any, extraHeaders http.Header) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var (
		bodyReader  io.Reader
		contentType string
		isMultipart bool
	)
	switch b := body.(type) {
	case nil:
	case *Multipart:
		if b == nil {
			break
		}
		bodyReader, contentType, err = b.encode()
		if err != nil {
			return nil, err
		}
		isMultipart = true
	default:
		jsonBody, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	for name, values := range extraHeaders {
		if isMultipart && http.CanonicalHeaderKey(name) == "Content-Type" {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" && (isMultipart || req.Header.Get("Content-Type") == "") {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// errNoBaseURL は相対パスに対してベースURLが設定されていないことを表す。
var errNoBaseURL = errors.New("ベースURLが設定されていません")

// resolve はpathをベースURLと結合する。スラッシュの重複や欠落は補正する。
func (c *Client) resolve(path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("パスの解析に失敗: %w", err)
	}

	target := path
	if !u.IsAbs() {
		if c.baseURL == "" {
			return "", errNoBaseURL
		}
		target = strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("URLの解析に失敗: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("未対応のスキームです: %q", parsed.Scheme)
	}
	return parsed.String(), nil
}

// Credential はストアから現在のトークンを読み出し、引用符を外して返す。
// 未保存や読み出し失敗の場合は空文字列を返し、送信は未認証のまま続ける。
func (c *Client) Credential(ctx context.Context) string {
	raw, ok, err := c.store.Get(ctx, c.credentialKey)
	if err != nil {
		log.Printf("[Gateway] 認証トークンの読み出しに失敗: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return SanitizeCredential(raw)
}

// SetCredential は認証トークンを保存する。ログイン成功時に使う。
func (c *Client) SetCredential(ctx context.Context, token string) error {
	if err := c.store.Set(ctx, c.credentialKey, token); err != nil {
		return fmt.Errorf("認証トークンの保存に失敗: %w", err)
	}
	return nil
}

// ClearCredential は認証トークンとその他のセッション状態をすべて削除する。
// 通信は行わない。何度呼んでもエラーにならない。
func (c *Client) ClearCredential(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("セッションのクリアに失敗: %w", err)
	}
	return nil
}
