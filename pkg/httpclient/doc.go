// Package httpclient は管理APIへの認証付きリクエストを一元的に扱うGatewayを提供する。
//
// すべてのリクエストに保存済みの認証トークンをBearer形式で付与し、
// レスポンスや通信エラーを必ず1つのEnvelopeに変換して呼び出し元に返す。
// 失敗時のユーザー向けメッセージは呼び出し箇所ごとではなく、
// Gatewayが通知Sinkに1回だけ送る。
package httpclient
