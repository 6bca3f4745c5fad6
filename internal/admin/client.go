package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
	"github.com/nao1215/schooladmin/pkg/session"
)

var (
	// ErrInvalidInput は送信前の入力検証に失敗したことを表す。
	ErrInvalidInput = errors.New("入力値が不正です")
	// ErrUnexpectedResponse はレスポンスの形式が想定と異なることを表す。
	ErrUnexpectedResponse = errors.New("想定外のレスポンスです")
	// ErrNotPDF はファイルがPDFではないことを表す。
	ErrNotPDF = errors.New("PDFファイルではありません")
)

// MessageUnreadable は2xxのレスポンスを解析できなかったときの通知文。
const MessageUnreadable = "The server returned a response that could not be read."

// Client は管理APIクライアント。
type Client struct {
	// gw は認証付きリクエストを送るGateway。
	gw *httpclient.Client
	// store はログイン中の管理者情報を保持するセッションストア。
	store session.Store
	// sink は成功通知と検証エラーの通知先。
	sink notify.Sink
	// validate は入力検証器。
	validate *validator.Validate
	// now は現在時刻を返す。ログインURLのtimestampに使う。
	now func() time.Time
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New は新しい管理APIクライアントを生成する。
// storeはGatewayと同じストアを渡すこと。
func New(gw *httpclient.Client, store session.Store, sink notify.Sink, opts ...Option) *Client {
	if sink == nil {
		sink = notify.Discard
	}
	c := &Client{
		gw:       gw,
		store:    store,
		sink:     sink,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gateway は内部で使用しているGatewayを返す。
func (c *Client) Gateway() *httpclient.Client {
	return c.gw
}

// listBody は一覧系エンドポイントのレスポンスボディ。
type listBody[T any] struct {
	Success *bool  `json:"success"`
	Data    []T    `json:"data"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// itemBody は単一レコードを返すエンドポイントのレスポンスボディ。
type itemBody[T any] struct {
	Success *bool `json:"success"`
	Data    T     `json:"data"`
}

// rejected はボディが明示的にsuccess:falseを返したかどうか。
func rejected(success *bool) bool {
	return success != nil && !*success
}

// fetchList は一覧を取得する。whatは失敗時の通知文に使う（例: "messages"）。
func fetchList[T any](ctx context.Context, c *Client, path, what string) (*listBody[T], error) {
	env := c.gw.Get(ctx, path)
	if err := env.Err(); err != nil {
		return nil, err
	}
	body, err := httpclient.DecodeData[listBody[T]](env)
	if err != nil {
		return nil, c.unexpected("Failed to load "+what+".", fmt.Errorf("%sの一覧の解析に失敗: %v", what, err))
	}
	if rejected(body.Success) {
		return nil, c.unexpected("Failed to load "+what+".", fmt.Errorf("%sの一覧の取得に失敗", what))
	}
	return body, nil
}

// send は作成・更新・削除のリクエストを送り、成功時はsuccessTextを通知する。
// 結果のdataをoutにデシリアライズする（outがnilの場合は読み捨てる）。
func (c *Client) send(ctx context.Context, method, path string, body any, successText string, out any) error {
	env := c.gw.Request(ctx, method, path, body, nil)
	if err := env.Err(); err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		var wrapper struct {
			Success *bool           `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(env.Data, &wrapper); err != nil {
			return c.unexpected(MessageUnreadable, fmt.Errorf("レスポンスの解析に失敗: %v", err))
		}
		if len(wrapper.Data) > 0 {
			if err := json.Unmarshal(wrapper.Data, out); err != nil {
				return c.unexpected(MessageUnreadable, fmt.Errorf("レスポンスの解析に失敗: %v", err))
			}
		}
	}
	if successText != "" {
		c.sink.Notify(notify.Success("Success", successText))
	}
	return nil
}

// invalid は検証エラーを通知し、ErrInvalidInputでラップして返す。
func (c *Client) invalid(text string, err error) error {
	c.sink.Notify(notify.Error(text))
	if err == nil {
		return ErrInvalidInput
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// unexpected はレスポンスの形式エラーを通知し、ErrUnexpectedResponseでラップして返す。
func (c *Client) unexpected(text string, err error) error {
	c.sink.Notify(notify.Error(text))
	if err == nil {
		return ErrUnexpectedResponse
	}
	return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
}

// serial は一覧内の通し番号を返す。
func serial(page, limit, i int) int {
	return (page-1)*limit + i + 1
}
