package admin

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/nao1215/schooladmin/pkg/httpclient"
)

// Datesheet は試験日程表PDF。
type Datesheet struct {
	ID        string    `json:"_id"`
	ExamName  string    `json:"examName"`
	Year      string    `json:"year"`
	Class     string    `json:"class"`
	PDF       string    `json:"pdf"`
	CreatedAt time.Time `json:"createdAt"`
	SerialNo  int       `json:"-"`
}

// DatesheetInput は試験日程表のアップロード内容。
type DatesheetInput struct {
	ExamName string `validate:"required"`
	Year     string `validate:"required"`
	Class    string `validate:"required"`
	FileName string `validate:"required"`
	PDF      []byte `validate:"required"`
}

// ListDatesheets は試験日程表を作成日時の新しい順で返す。
func (c *Client) ListDatesheets(ctx context.Context) ([]Datesheet, error) {
	body, err := fetchList[Datesheet](ctx, c, "datesheet", "datesheets")
	if err != nil {
		return nil, err
	}
	items := body.Data
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	for i := range items {
		items[i].SerialNo = i + 1
	}
	return items, nil
}

// UploadDatesheet は試験日程表をアップロードする。
func (c *Client) UploadDatesheet(ctx context.Context, in DatesheetInput) (*Datesheet, error) {
	return c.saveDatesheet(ctx, http.MethodPost, "datesheet", in, "Datesheet uploaded successfully!")
}

// UpdateDatesheet は試験日程表を差し替える。
func (c *Client) UpdateDatesheet(ctx context.Context, id string, in DatesheetInput) (*Datesheet, error) {
	return c.saveDatesheet(ctx, http.MethodPut, "datesheet/"+url.PathEscape(id), in, "Datesheet updated successfully!")
}

// DeleteDatesheet は試験日程表を削除する。
func (c *Client) DeleteDatesheet(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "datesheet/"+url.PathEscape(id), nil, "Datesheet deleted successfully!", nil)
}

func (c *Client) saveDatesheet(ctx context.Context, method, path string, in DatesheetInput, successText string) (*Datesheet, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, c.invalid("Please fill out all required fields and upload a valid PDF.", err)
	}
	if !IsPDF(in.PDF) {
		return nil, c.invalid("Please fill out all required fields and upload a valid PDF.", ErrNotPDF)
	}

	form := httpclient.NewMultipart().
		AddField("examName", in.ExamName).
		AddField("year", in.Year).
		AddField("class", in.Class).
		AddFile("pdf", in.FileName, in.PDF)
	var d Datesheet
	if err := c.send(ctx, method, path, form, successText, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
