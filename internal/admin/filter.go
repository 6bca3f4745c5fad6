package admin

import "strings"

// 既読状態での絞り込み条件。
const (
	ReadAny    = ""
	ReadOnly   = "read"
	UnreadOnly = "unread"
)

// Filter は入学申請一覧のローカル絞り込み条件。
type Filter struct {
	// Search は生徒名、父親名、地区に対する部分一致検索（大文字小文字を区別しない）。
	Search string
	// Status はステータスの完全一致（大文字小文字を区別しない）。空の場合は絞り込まない。
	Status string
	// Read は既読状態。ReadAny、ReadOnly、UnreadOnlyのいずれか。
	Read string
}

// FilterApplications は条件に一致する申請だけを元の順序で返す。
func FilterApplications(apps []Application, f Filter) []Application {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	status := strings.TrimSpace(f.Status)

	out := make([]Application, 0, len(apps))
	for _, a := range apps {
		if search != "" &&
			!strings.Contains(strings.ToLower(a.StudentName), search) &&
			!strings.Contains(strings.ToLower(a.FatherName), search) &&
			!strings.Contains(strings.ToLower(a.District), search) {
			continue
		}
		if status != "" && !strings.EqualFold(a.ApplicationStatus, status) {
			continue
		}
		switch strings.ToLower(f.Read) {
		case ReadOnly:
			if !a.IsRead {
				continue
			}
		case UnreadOnly:
			if a.IsRead {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
