// Package dashboard はダッシュボードの集計値と増加アラートを管理する。
//
// 6つの集計値を並行して取得し、前回のスナップショットと比較して
// 増加した項目ごとにアラートを生成する。スナップショットとアラートは
// SQLiteに保存し、既読管理も行う。
package dashboard
