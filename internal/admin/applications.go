package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
)

// 入学申請のステータス。
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// DefaultPageSize は入学申請一覧の1ページあたりの件数。
const DefaultPageSize = 10

// Application は入学申請の一覧表示用レコード。
type Application struct {
	ID                string    `json:"_id"`
	StudentName       string    `json:"student_name"`
	FatherName        string    `json:"father_name"`
	District          string    `json:"district"`
	Class             string    `json:"class"`
	StudentPhotoPath  string    `json:"student_photo_path,omitempty"`
	ApplicationStatus string    `json:"applicationStatus"`
	IsRead            bool      `json:"isRead"`
	CreatedAt         time.Time `json:"createdAt"`
	// SerialNo は一覧上の通し番号。サーバーからは送られない。
	SerialNo int `json:"-"`
}

// ApplicationPage は入学申請一覧の1ページ分。
type ApplicationPage struct {
	Items   []Application
	Page    int
	Limit   int
	Total   int
	HasMore bool
}

// ListApplications は入学申請を1ページ分取得し、新しい順に並べて通し番号を振る。
func (c *Client) ListApplications(ctx context.Context, page, limit int) (*ApplicationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	path := fmt.Sprintf("admissionApplications?page=%d&limit=%d", page, limit)
	body, err := fetchList[Application](ctx, c, path, "applications")
	if err != nil {
		return nil, err
	}

	items := body.Data
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	for i := range items {
		items[i].SerialNo = serial(page, limit, i)
	}
	return &ApplicationPage{
		Items:   items,
		Page:    page,
		Limit:   limit,
		Total:   body.Total,
		HasMore: page*limit < body.Total,
	}, nil
}

// hiddenFields は詳細表示に出さないフィールド。
var hiddenFields = []string{"password", "_id", "__v"}

// ApplicationDetail は入学申請の詳細。
type ApplicationDetail struct {
	Application
	// Fields は表示用の全フィールド。パスワードや内部IDは含まない。
	Fields map[string]any
}

// FieldNames はFieldsのキーを名前順で返す。
func (d *ApplicationDetail) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GetApplication は入学申請の詳細を取得する。
func (c *Client) GetApplication(ctx context.Context, id string) (*ApplicationDetail, error) {
	env := c.gw.Get(ctx, "admissionApplication/"+url.PathEscape(id))
	if err := env.Err(); err != nil {
		return nil, err
	}
	body, err := httpclient.DecodeData[itemBody[json.RawMessage]](env)
	if err != nil || rejected(body.Success) || len(body.Data) == 0 {
		return nil, c.unexpected("Failed to load application details.", fmt.Errorf("入学申請 %s の取得に失敗", id))
	}

	detail := &ApplicationDetail{}
	if err := json.Unmarshal(body.Data, &detail.Application); err != nil {
		return nil, c.unexpected("Failed to load application details.", fmt.Errorf("入学申請の解析に失敗: %v", err))
	}
	if err := json.Unmarshal(body.Data, &detail.Fields); err != nil {
		return nil, c.unexpected("Failed to load application details.", fmt.Errorf("入学申請の解析に失敗: %v", err))
	}
	for _, k := range hiddenFields {
		delete(detail.Fields, k)
	}
	return detail, nil
}

// UpdateStatus は入学申請のステータスを変更する。
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if err := c.validate.Var(status, "required,oneof=pending approved rejected"); err != nil {
		return c.invalid("Invalid application status.", err)
	}
	return c.send(ctx, http.MethodPut, "admissionApplication/"+url.PathEscape(id)+"/status",
		map[string]string{"applicationStatus": status},
		fmt.Sprintf("Application status updated to %s.", status), nil)
}

// MarkAsRead は入学申請を既読にする。
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPut, "admissionApplication/"+url.PathEscape(id)+"/markAsRead", nil, "", nil)
}

// File はダウンロードしたファイル。
type File struct {
	// Name は保存時に使うファイル名。
	Name string
	// ContentType はレスポンスのContent-Type。
	ContentType string
	// Content はファイルの中身。
	Content []byte
}

// DownloadPDF は入学申請書のPDFを取得する。
func (c *Client) DownloadPDF(ctx context.Context, id string) (*File, error) {
	env := c.gw.Get(ctx, "admissionApplication/"+url.PathEscape(id)+"/downloadPDF")
	if err := env.Err(); err != nil {
		return nil, err
	}
	c.sink.Notify(notify.Success("Success", "PDF downloaded successfully."))
	return &File{Name: fmt.Sprintf("application_%s.pdf", id), ContentType: env.ContentType, Content: env.Body}, nil
}

// DownloadAdmitCard は承認済み申請の受験票PDFを取得する。
// 応答がPDFでない場合はErrNotPDFを返す。
func (c *Client) DownloadAdmitCard(ctx context.Context, id, studentName string) (*File, error) {
	env := c.gw.Get(ctx, "admitCard?id="+url.QueryEscape(id))
	if err := env.Err(); err != nil {
		return nil, err
	}
	if !IsPDF(env.Body) {
		return nil, c.unexpected("Failed to download the admit card. Please try again.", fmt.Errorf("受験票の取得に失敗: %w", ErrNotPDF))
	}

	name := strings.TrimSpace(studentName)
	if name == "" {
		name = id
	}
	c.sink.Notify(notify.Success("Success", "Admit card downloaded successfully."))
	return &File{
		Name:        fmt.Sprintf("Admit_Card_%s.pdf", strings.ReplaceAll(name, " ", "_")),
		ContentType: env.ContentType,
		Content:     env.Body,
	}, nil
}

// DownloadFiles は入学申請の添付ファイル一式を取得する。
// 拡張子は中身から判定する（通常はZIPアーカイブ）。
func (c *Client) DownloadFiles(ctx context.Context, id string) (*File, error) {
	env := c.gw.Get(ctx, "admissionApplication/"+url.PathEscape(id)+"/downloadFiles")
	if err := env.Err(); err != nil {
		return nil, err
	}
	mt := mimetype.Detect(env.Body)
	c.sink.Notify(notify.Success("Success", "Files downloaded successfully."))
	return &File{
		Name:        fmt.Sprintf("application_%s_files%s", id, mt.Extension()),
		ContentType: mt.String(),
		Content:     env.Body,
	}, nil
}
