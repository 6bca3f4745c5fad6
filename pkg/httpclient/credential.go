package httpclient

import (
	"net/http"
	"strings"
)

// SanitizeCredential は保存済みトークンの前後にある引用符を1つずつ取り除く。
// JSON文字列化された値がそのまま保存されている場合への対処。
func SanitizeCredential(raw string) string {
	s := strings.TrimPrefix(raw, `"`)
	return strings.TrimSuffix(s, `"`)
}

// AttachCredential はトークンをBearer形式でヘッダーに設定する。
// tokenが空の場合は何もしない。
func AttachCredential(req *http.Request, token, headerName string) *http.Request {
	if token == "" {
		return req
	}
	if headerName == "" {
		headerName = DefaultCredentialHeaderName
	}
	req.Header.Set(headerName, "Bearer "+token)
	return req
}
