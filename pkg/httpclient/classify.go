package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ユーザー向けの固定メッセージ。
const (
	MessageBadRequest   = "Bad Request."
	MessageUnauthorized = "Unauthorized. Please log in again."
	MessageForbidden    = "Forbidden. You do not have permission to perform this action."
	MessageNotFound     = "Resource not found."
	MessageServerError  = "Internal Server Error. Please try again later."
	MessageUnexpected   = "An unexpected error occurred."
	MessageNoResponse   = "No response from server. Please check your network."
)

// NetworkError は送信後に応答を受け取れなかったことを表す。
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// ConstructionError はリクエストを組み立てられなかったことを表す。
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string { return e.Err.Error() }

func (e *ConstructionError) Unwrap() error { return e.Err }

// ClassifyResponse は受信したHTTPレスポンスをEnvelopeに変換する。
// ネットワークを使わずに単体で検証できるよう、ステータスとボディだけを受け取る。
func ClassifyResponse(statusCode int, body []byte) Envelope {
	env := Envelope{
		StatusCode: statusCode,
		Body:       body,
	}
	if isJSON(body) {
		env.Data = json.RawMessage(body)
	}
	serverMsg := serverMessage(body)

	if statusCode >= 200 && statusCode < 300 {
		env.Success = true
		env.Message = serverMsg
		return env
	}

	env.Kind = KindClientRequest
	if statusCode >= 500 {
		env.Kind = KindServer
	}
	env.Message = statusMessage(statusCode, serverMsg)
	return env
}

// statusMessage はステータスコードに対応する固定メッセージを返す。
// 400と表にないステータスはサーバーのメッセージを優先する。
func statusMessage(statusCode int, serverMsg string) string {
	switch statusCode {
	case http.StatusBadRequest:
		if serverMsg != "" {
			return serverMsg
		}
		return MessageBadRequest
	case http.StatusUnauthorized:
		return MessageUnauthorized
	case http.StatusForbidden:
		return MessageForbidden
	case http.StatusNotFound:
		return MessageNotFound
	case http.StatusInternalServerError:
		return MessageServerError
	default:
		if serverMsg != "" {
			return serverMsg
		}
		return MessageUnexpected
	}
}

// ClassifyError は送信前後のエラーをEnvelopeに変換する。
// *NetworkErrorを含むエラーは応答なし、それ以外は組み立て失敗として扱う。
func ClassifyError(err error) Envelope {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return Envelope{Message: MessageNoResponse, Kind: KindNetwork}
	}
	text := "unknown error"
	if err != nil {
		text = err.Error()
	}
	return Envelope{Message: "Error: " + text, Kind: KindConstruction}
}

// serverMessage はJSONボディからサーバーが返したメッセージを取り出す。
// message、error、msgの順に、空でない文字列フィールドを採用する。
func serverMessage(body []byte) string {
	if !isJSON(body) {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "msg"} {
		if s, ok := fields[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func isJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && json.Valid(trimmed)
}
