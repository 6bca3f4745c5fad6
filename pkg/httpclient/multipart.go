package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Multipart はファイルアップロード用のmultipart/form-dataボディ。
// Requestのbodyに渡すと、Content-Typeは境界文字列付きで自動設定される。
type Multipart struct {
	fields []formField
	files  []FormFile
}

type formField struct {
	name  string
	value string
}

// FormFile はmultipartボディに含めるファイル。
type FormFile struct {
	// FieldName はフォームのフィールド名（例: "pdf"）。
	FieldName string
	// FileName は送信するファイル名。
	FileName string
	// Content はファイルの中身。
	Content []byte
}

// NewMultipart は空のMultipartを生成する。
func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField はテキストフィールドを追加する。追加順に送信される。
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// AddFile はファイルフィールドを追加する。
func (m *Multipart) AddFile(fieldName, fileName string, content []byte) *Multipart {
	m.files = append(m.files, FormFile{FieldName: fieldName, FileName: fileName, Content: content})
	return m
}

// Files は追加済みのファイルを返す。
func (m *Multipart) Files() []FormFile {
	return m.files
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode はボディとContent-Typeを生成する。
// ファイルパートのContent-Typeは中身から判定する。
func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("フィールド %s の書き込みに失敗: %w", f.name, err)
		}
	}

	for _, f := range m.files {
		if f.FieldName == "" {
			return nil, "", fmt.Errorf("ファイル %q のフィールド名が空です", f.FileName)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.FieldName), quoteEscaper.Replace(f.FileName)))
		h.Set("Content-Type", mimetype.Detect(f.Content).String())

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("ファイルパートの作成に失敗: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("ファイルの書き込みに失敗: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipartボディの終端処理に失敗: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
