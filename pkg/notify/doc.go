// Package notify はユーザー向けの一時的な通知（トースト相当）を扱う。
//
// Gatewayや各画面相当の処理は通知文字列をSinkに渡すだけで、
// 表示方法（端末出力、テスト用の記録など）はSinkの実装に委ねる。
package notify
