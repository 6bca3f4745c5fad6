// Package session はログイン中の管理者セッション（認証トークンとプロフィール）を
// 永続化するキーバリューストアを提供する。
//
// ブラウザのlocalStorageに相当する領域で、書き込みは常に1つのセッションからのみ行われる
// （後勝ち）。Gatewayはこのパッケージのインターフェースにのみ依存するため、
// テストではMemoryStoreに差し替えられる。
package session
