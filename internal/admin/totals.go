package admin

import (
	"context"
	"fmt"

	"github.com/nao1215/schooladmin/pkg/httpclient"
)

// Counter はダッシュボードの集計項目。
type Counter struct {
	// Key は集計項目の識別子（スナップショットの保存キー）。
	Key string
	// Label は表示名。
	Label string
	// Path は集計エンドポイントの相対パス。
	Path string
}

// Counters はダッシュボードに表示する集計項目。表示順に並ぶ。
var Counters = []Counter{
	{Key: "totalUsers", Label: "Total Users", Path: "total-users"},
	{Key: "totalContacts", Label: "Total Contacts", Path: "total-contacts"},
	{Key: "totalDatesheets", Label: "Total Datesheets", Path: "total-datesheets"},
	{Key: "totalMessages", Label: "Total Messages", Path: "total-messages"},
	{Key: "totalApplications", Label: "Total Applications", Path: "total-applications"},
	{Key: "totalSyllabus", Label: "Total Syllabus Uploaded", Path: "total-syllabus"},
}

// countBody は集計エンドポイントのレスポンスボディ。
type countBody struct {
	Count int `json:"count"`
}

// Count は集計値を1つ取得する。countフィールドがない場合は0。
func (c *Client) Count(ctx context.Context, counter Counter) (int, error) {
	env := c.gw.Get(ctx, counter.Path)
	if err := env.Err(); err != nil {
		return 0, err
	}
	body, err := httpclient.DecodeData[countBody](env)
	if err != nil {
		return 0, c.unexpected("Failed to fetch stats.", fmt.Errorf("%sの解析に失敗: %v", counter.Label, err))
	}
	return body.Count, nil
}
