package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind はリクエスト失敗の分類を表す。
type Kind int

const (
	// KindNone は成功したリクエストを表す。
	KindNone Kind = iota
	// KindClientRequest は4xx系の応答（入力不正、未認証、権限なし、未検出など）を表す。
	KindClientRequest
	// KindServer は5xx系の応答を表す。
	KindServer
	// KindNetwork は応答を受け取れなかったこと（接続失敗、タイムアウト、名前解決失敗）を表す。
	KindNetwork
	// KindConstruction はリクエストを組み立てられず送信できなかったことを表す。
	KindConstruction
)

// String は分類名を返す。
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindClientRequest:
		return "client_request"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindConstruction:
		return "construction"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Envelope はGateway経由の呼び出し結果を正規化したもの。
// 呼び出し1回につき必ず1つ返され、呼び出し元はSuccessで分岐する。
type Envelope struct {
	// Success はHTTPステータスが2xxだったかどうか。
	Success bool `json:"success"`
	// Data はレスポンスボディがJSONだった場合のボディ全体。
	Data json.RawMessage `json:"data,omitempty"`
	// Message はユーザー向けメッセージ。成功時はサーバーのmessageフィールド。
	Message string `json:"message,omitempty"`
	// StatusCode はHTTPステータスコード。応答がなかった場合は0。
	StatusCode int `json:"statusCode,omitempty"`

	// Body はレスポンスボディの生バイト列（PDFなどのバイナリ取得用）。
	Body []byte `json:"-"`
	// ContentType はレスポンスのContent-Typeヘッダー。
	ContentType string `json:"-"`
	// Kind は失敗の分類。成功時はKindNone。
	Kind Kind `json:"-"`
}

// Err は失敗したEnvelopeを*RequestErrorとして返す。成功時はnil。
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	return &RequestError{Kind: e.Kind, StatusCode: e.StatusCode, Message: e.Message}
}

// RequestError はGatewayで失敗したリクエストのエラー表現。
// 通知はGatewayが送信済みなので、呼び出し元は再通知しなくてよい。
type RequestError struct {
	// Kind は失敗の分類。
	Kind Kind
	// StatusCode はHTTPステータスコード。応答がなかった場合は0。
	StatusCode int
	// Message はユーザー向けメッセージ。
	Message string
}

// Error はエラーメッセージを返す。
func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status=%d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// IsUnauthorized はerrが401応答に由来するかどうかを返す。
func IsUnauthorized(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == 401
}

// IsNotFound はerrが404応答に由来するかどうかを返す。
func IsNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == 404
}

// ErrNoData はEnvelopeにJSONデータが含まれていないことを表す。
var ErrNoData = errors.New("レスポンスにJSONデータがありません")

// DecodeData はEnvelopeのDataを指定された型にデシリアライズする。
func DecodeData[T any](e Envelope) (*T, error) {
	if len(e.Data) == 0 {
		return nil, ErrNoData
	}
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("レスポンスデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}
