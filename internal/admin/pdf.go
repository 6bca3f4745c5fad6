package admin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// pdfMIME はPDFのMIMEタイプ。
const pdfMIME = "application/pdf"

// ClassOptions はシラバスや試験日程で選択できるクラス。
var ClassOptions = []string{
	"Nursery", "LKG", "UKG",
	"1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th", "9th", "10th",
}

// IsPDF は中身がPDFかどうかを判定する。
func IsPDF(content []byte) bool {
	return len(content) > 0 && mimetype.Detect(content).Is(pdfMIME)
}

// LoadPDF はファイルを読み込み、PDFであることを確認する。
// 戻り値のnameはアップロード時のファイル名に使う。
func LoadPDF(path string) (name string, content []byte, err error) {
	content, err = os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	if !IsPDF(content) {
		return "", nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	return filepath.Base(path), content, nil
}
