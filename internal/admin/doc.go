// Package admin は学校管理APIの型付きクライアントを提供する。
//
// すべての呼び出しはhttpclient（Gateway）を経由する。通信や応答の失敗は
// Gatewayがエラー通知を送信済みなので、このパッケージは再通知しない。
// 入力検証やレスポンスの解釈に失敗した場合と、作成・更新・削除が成功した場合にだけ
// 自身で通知を送る。
package admin
