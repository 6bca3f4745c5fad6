package admin

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/schooladmin/pkg/httpclient"
)

// Syllabus はクラスごとのシラバスPDF。
type Syllabus struct {
	ID        string    `json:"_id"`
	Class     string    `json:"class"`
	PDFURL    string    `json:"pdfUrl"`
	CreatedAt time.Time `json:"createdAt"`
	SerialNo  int       `json:"-"`
}

// SyllabusInput はシラバスのアップロード内容。
type SyllabusInput struct {
	Class    string `validate:"required,oneof=Nursery LKG UKG 1st 2nd 3rd 4th 5th 6th 7th 8th 9th 10th"`
	FileName string `validate:"required"`
	PDF      []byte `validate:"required"`
}

// ListSyllabi はシラバスをサーバーが返した順で返す。
func (c *Client) ListSyllabi(ctx context.Context) ([]Syllabus, error) {
	body, err := fetchList[Syllabus](ctx, c, "syllabus", "syllabus")
	if err != nil {
		return nil, err
	}
	for i := range body.Data {
		body.Data[i].SerialNo = i + 1
	}
	return body.Data, nil
}

// UploadSyllabus はシラバスをアップロードする。
func (c *Client) UploadSyllabus(ctx context.Context, in SyllabusInput) (*Syllabus, error) {
	return c.saveSyllabus(ctx, http.MethodPost, "syllabus", in, "Syllabus uploaded successfully!")
}

// UpdateSyllabus はシラバスを差し替える。
func (c *Client) UpdateSyllabus(ctx context.Context, id string, in SyllabusInput) (*Syllabus, error) {
	return c.saveSyllabus(ctx, http.MethodPut, "syllabus/"+url.PathEscape(id), in, "Syllabus updated successfully!")
}

// DeleteSyllabus はシラバスを削除する。
func (c *Client) DeleteSyllabus(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "syllabus/"+url.PathEscape(id), nil, "Syllabus deleted successfully!", nil)
}

func (c *Client) saveSyllabus(ctx context.Context, method, path string, in SyllabusInput, successText string) (*Syllabus, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, c.invalid("Please select a class and upload a PDF.", err)
	}
	if !IsPDF(in.PDF) {
		return nil, c.invalid("Please upload a valid PDF file.", ErrNotPDF)
	}

	form := httpclient.NewMultipart().
		AddField("class", in.Class).
		AddFile("pdf", in.FileName, in.PDF)
	var s Syllabus
	if err := c.send(ctx, method, path, form, successText, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
