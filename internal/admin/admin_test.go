package admin

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/schooladmin/internal/fakeapi"
	"github.com/nao1215/schooladmin/pkg/httpclient"
	"github.com/nao1215/schooladmin/pkg/notify"
	"github.com/nao1215/schooladmin/pkg/session"
)

// testPDF はアップロードに使う最小のPDF。
var testPDF = []byte("%PDF-1.4\n%%EOF\n")

// testEnv はフェイクAPIに接続したクライアント一式。
type testEnv struct {
	client *Client
	server *fakeapi.Server
	store  *session.MemoryStore
	rec    *notify.Recorder
	admin  fakeapi.Admin
}

// newTestEnv はフェイクAPIを起動し、未ログインのクライアントを返す。
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := fakeapi.New("admin-test-secret")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	store := session.NewMemoryStore()
	rec := &notify.Recorder{}
	gw := httpclient.New(
		httpclient.Config{BaseURL: ts.URL + fakeapi.BasePath + "/", Timeout: 5 * time.Second},
		httpclient.WithStore(store),
		httpclient.WithSink(rec),
	)
	return &testEnv{
		client: New(gw, store, rec),
		server: srv,
		store:  store,
		rec:    rec,
		admin:  srv.AddAdmin("Asha Verma", "asha@example.com", "secret"),
	}
}

// login はテスト用管理者でログインし、通知の記録を消去する。
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	if _, err := e.client.Login(context.Background(), "asha@example.com", "secret"); err != nil {
		t.Fatalf("Login()でエラーが発生: %v", err)
	}
	e.rec.Reset()
}

// TestLogin はログイン処理を検証する。
func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("成功時にトークンと管理者情報が保存されること", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)
		ctx := context.Background()

		profile, err := e.client.Login(ctx, "asha@example.com", "secret")
		if err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		if profile.ID != e.admin.ID || profile.Name != "Asha Verma" {
			t.Errorf("profile = %+v", profile)
		}
		if e.client.Gateway().Credential(ctx) == "" {
			t.Error("トークンが保存されていない")
		}
		current, err := e.client.CurrentProfile(ctx)
		if err != nil {
			t.Fatalf("CurrentProfile()でエラーが発生: %v", err)
		}
		if current.Email != "asha@example.com" {
			t.Errorf("CurrentProfile().Email = %q", current.Email)
		}

		got := e.rec.Notifications()
		if len(got) != 1 || got[0].Title != "Login Successful" || got[0].Text != "Welcome back, Asha Verma!" {
			t.Errorf("通知 = %+v", got)
		}
	})

	t.Run("名前がない管理者はAdminとして歓迎されること", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)
		e.server.AddAdmin("", "noname@example.com", "pw")

		if _, err := e.client.Login(context.Background(), "noname@example.com", "pw"); err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		got := e.rec.Notifications()
		if len(got) != 1 || got[0].Text != "Welcome back, Admin!" {
			t.Errorf("通知 = %+v", got)
		}
	})

	t.Run("パスワード誤りではサーバーのメッセージが通知されること", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)
		ctx := context.Background()

		_, err := e.client.Login(ctx, "asha@example.com", "wrong")
		if !errors.Is(err, ErrLoginFailed) {
			t.Fatalf("err = %v, want ErrLoginFailed", err)
		}
		if e.client.Gateway().Credential(ctx) != "" {
			t.Error("失敗時にトークンが保存されている")
		}
		got := e.rec.Notifications()
		if len(got) != 1 || got[0].Level != notify.LevelError || got[0].Text != "Invalid credentials" {
			t.Errorf("通知 = %+v", got)
		}
	})

	t.Run("メールアドレスが不正な場合は送信しないこと", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)

		_, err := e.client.Login(context.Background(), "not-an-email", "secret")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
		if errs := e.rec.Errors(); len(errs) != 1 {
			t.Errorf("エラー通知 = %v, want 1件", errs)
		}
	})
}

// TestLogout はログアウトでセッションが消去されることを検証する。
func TestLogout(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	if err := e.client.Logout(ctx); err != nil {
		t.Fatalf("Logout()でエラーが発生: %v", err)
	}
	if _, err := e.client.CurrentProfile(ctx); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("CurrentProfile() err = %v, want ErrNotLoggedIn", err)
	}
	if e.store.Len() != 0 {
		t.Errorf("ストアの件数 = %d, want 0", e.store.Len())
	}
	got := e.rec.Notifications()
	if len(got) != 1 || got[0].Title != "Logged Out" {
		t.Errorf("通知 = %+v", got)
	}

	// ログアウト後のリクエストは未認証として扱われる
	e.rec.Reset()
	_, err := e.client.ListContacts(ctx)
	if !httpclient.IsUnauthorized(err) {
		t.Errorf("err = %v, want 401", err)
	}
	if errs := e.rec.Errors(); len(errs) != 1 || errs[0] != httpclient.MessageUnauthorized {
		t.Errorf("エラー通知 = %v", errs)
	}
}

// TestTokenInfo はトークンのクレーム読み取りを検証する。
func TestTokenInfo(t *testing.T) {
	t.Parallel()

	t.Run("ログイン後のトークンから管理者IDと期限が読めること", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)
		e.login(t)

		info, err := e.client.TokenInfo(context.Background())
		if err != nil {
			t.Fatalf("TokenInfo()でエラーが発生: %v", err)
		}
		if info.Subject != e.admin.ID {
			t.Errorf("Subject = %q, want %q", info.Subject, e.admin.ID)
		}
		if info.Expired(time.Now()) {
			t.Error("発行直後のトークンが期限切れと判定された")
		}
		if !info.Expired(time.Now().Add(2 * time.Hour)) {
			t.Error("2時間後のトークンが有効と判定された")
		}
	})

	t.Run("JWTでないトークンはErrOpaqueTokenになること", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseToken(`"opaque-session-id"`); !errors.Is(err, ErrOpaqueToken) {
			t.Errorf("err = %v, want ErrOpaqueToken", err)
		}
	})

	t.Run("未ログインではErrNotLoggedInになること", func(t *testing.T) {
		t.Parallel()
		e := newTestEnv(t)
		if _, err := e.client.TokenInfo(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("err = %v, want ErrNotLoggedIn", err)
		}
	})
}

// TestListApplications はページングと並び順を検証する。
func TestListApplications(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := range 12 {
		e.server.AddApplication(fakeapi.Application{
			StudentName: "Student " + string(rune('A'+i)),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}

	first, err := e.client.ListApplications(ctx, 1, 5)
	if err != nil {
		t.Fatalf("ListApplications()でエラーが発生: %v", err)
	}
	if len(first.Items) != 5 || first.Total != 12 || !first.HasMore {
		t.Fatalf("page1 = %d件 total=%d hasMore=%v", len(first.Items), first.Total, first.HasMore)
	}
	if first.Items[0].StudentName != "Student E" {
		t.Errorf("先頭 = %q, want 新しい順で Student E", first.Items[0].StudentName)
	}
	for i, a := range first.Items {
		if a.SerialNo != i+1 {
			t.Errorf("Items[%d].SerialNo = %d, want %d", i, a.SerialNo, i+1)
		}
	}

	last, err := e.client.ListApplications(ctx, 3, 5)
	if err != nil {
		t.Fatalf("ListApplications()でエラーが発生: %v", err)
	}
	if len(last.Items) != 2 || last.HasMore {
		t.Fatalf("page3 = %d件 hasMore=%v", len(last.Items), last.HasMore)
	}
	if last.Items[0].SerialNo != 11 || last.Items[1].SerialNo != 12 {
		t.Errorf("通し番号 = %d, %d, want 11, 12", last.Items[0].SerialNo, last.Items[1].SerialNo)
	}
	if errs := e.rec.Errors(); len(errs) != 0 {
		t.Errorf("成功時にエラー通知 = %v", errs)
	}
}

// TestListApplicationsUnauthorized は未ログイン時の失敗を検証する。
func TestListApplicationsUnauthorized(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	_, err := e.client.ListApplications(context.Background(), 1, 10)
	if !httpclient.IsUnauthorized(err) {
		t.Fatalf("err = %v, want 401", err)
	}
	if errs := e.rec.Errors(); len(errs) != 1 {
		t.Errorf("エラー通知 = %v, want 1件", errs)
	}
}

// TestGetApplication は詳細取得で秘匿フィールドが除かれることを検証する。
func TestGetApplication(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	app := e.server.AddApplication(fakeapi.Application{
		StudentName: "Ravi Kumar",
		FatherName:  "Mohan Kumar",
		District:    "Pune",
		Password:    "hunter2",
		Version:     3,
	})

	detail, err := e.client.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication()でエラーが発生: %v", err)
	}
	if detail.ID != app.ID || detail.StudentName != "Ravi Kumar" {
		t.Errorf("detail = %+v", detail.Application)
	}
	for _, k := range []string{"password", "_id", "__v"} {
		if _, ok := detail.Fields[k]; ok {
			t.Errorf("Fieldsに%qが含まれている", k)
		}
	}
	if detail.Fields["father_name"] != "Mohan Kumar" {
		t.Errorf("father_name = %v", detail.Fields["father_name"])
	}

	t.Run("存在しない申請は404として1回だけ通知されること", func(t *testing.T) {
		e.rec.Reset()
		_, err := e.client.GetApplication(ctx, "missing")
		if !httpclient.IsNotFound(err) {
			t.Fatalf("err = %v, want 404", err)
		}
		if errs := e.rec.Errors(); len(errs) != 1 || errs[0] != httpclient.MessageNotFound {
			t.Errorf("エラー通知 = %v", errs)
		}
	})
}

// TestUpdateStatus はステータス変更と既読化を検証する。
func TestUpdateStatus(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()
	app := e.server.AddApplication(fakeapi.Application{StudentName: "Ravi Kumar"})

	if err := e.client.UpdateStatus(ctx, app.ID, "Approved"); err != nil {
		t.Fatalf("UpdateStatus()でエラーが発生: %v", err)
	}
	if err := e.client.MarkAsRead(ctx, app.ID); err != nil {
		t.Fatalf("MarkAsRead()でエラーが発生: %v", err)
	}
	got, _ := e.server.Application(app.ID)
	if got.ApplicationStatus != StatusApproved || !got.IsRead {
		t.Errorf("サーバー上の申請 = %+v", got)
	}

	err := e.client.UpdateStatus(ctx, app.ID, "archived")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	got, _ = e.server.Application(app.ID)
	if got.ApplicationStatus != StatusApproved {
		t.Errorf("不正なステータスが送信された: %q", got.ApplicationStatus)
	}
}

// TestDownloads はPDFや添付ファイルの取得を検証する。
func TestDownloads(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()
	pending := e.server.AddApplication(fakeapi.Application{StudentName: "Ravi Kumar"})
	approved := e.server.AddApplication(fakeapi.Application{StudentName: "Meera Shah", ApplicationStatus: StatusApproved})

	t.Run("申請書PDF", func(t *testing.T) {
		f, err := e.client.DownloadPDF(ctx, pending.ID)
		if err != nil {
			t.Fatalf("DownloadPDF()でエラーが発生: %v", err)
		}
		if !IsPDF(f.Content) || f.Name != "application_"+pending.ID+".pdf" {
			t.Errorf("file = %s (%d bytes)", f.Name, len(f.Content))
		}
	})

	t.Run("承認済みの受験票", func(t *testing.T) {
		f, err := e.client.DownloadAdmitCard(ctx, approved.ID, "Meera Shah")
		if err != nil {
			t.Fatalf("DownloadAdmitCard()でエラーが発生: %v", err)
		}
		if f.Name != "Admit_Card_Meera_Shah.pdf" || !IsPDF(f.Content) {
			t.Errorf("file = %s", f.Name)
		}
	})

	t.Run("未承認の受験票はサーバーのメッセージで失敗すること", func(t *testing.T) {
		e.rec.Reset()
		_, err := e.client.DownloadAdmitCard(ctx, pending.ID, "Ravi Kumar")
		if err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if errs := e.rec.Errors(); len(errs) != 1 || errs[0] != "Application is not approved" {
			t.Errorf("エラー通知 = %v", errs)
		}
	})

	t.Run("添付ファイル一式", func(t *testing.T) {
		f, err := e.client.DownloadFiles(ctx, pending.ID)
		if err != nil {
			t.Fatalf("DownloadFiles()でエラーが発生: %v", err)
		}
		if !strings.HasPrefix(f.Name, "application_"+pending.ID+"_files") || len(f.Content) == 0 {
			t.Errorf("file = %s (%d bytes)", f.Name, len(f.Content))
		}
	})
}

// TestMessages はメッセージのCRUDを検証する。
func TestMessages(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	in := MessageInput{Title: "Holiday", Content: "School closed on Friday", SentBy: "Principal", TargetAudience: "All"}
	created, err := e.client.CreateMessage(ctx, in)
	if err != nil {
		t.Fatalf("CreateMessage()でエラーが発生: %v", err)
	}
	if created.ID == "" || created.Title != "Holiday" {
		t.Errorf("created = %+v", created)
	}
	if _, err := e.client.CreateMessage(ctx, MessageInput{Title: "PTM", Content: "Meeting", SentBy: "Office", TargetAudience: "Parents"}); err != nil {
		t.Fatalf("CreateMessage()でエラーが発生: %v", err)
	}

	in.Content = "School closed on Monday"
	updated, err := e.client.UpdateMessage(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("UpdateMessage()でエラーが発生: %v", err)
	}
	if updated.Content != "School closed on Monday" {
		t.Errorf("updated.Content = %q", updated.Content)
	}

	list, err := e.client.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages()でエラーが発生: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].SentAt.Before(list[1].SentAt) || list[0].SerialNo != 1 {
		t.Errorf("並び順が新しい順でない: %+v", list)
	}

	if err := e.client.DeleteMessage(ctx, created.ID); err != nil {
		t.Fatalf("DeleteMessage()でエラーが発生: %v", err)
	}
	if err := e.client.DeleteMessage(ctx, created.ID); !httpclient.IsNotFound(err) {
		t.Errorf("2回目の削除 err = %v, want 404", err)
	}

	t.Run("必須項目が欠けている場合は送信しないこと", func(t *testing.T) {
		_, err := e.client.CreateMessage(ctx, MessageInput{Title: "only title"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}

// TestSyllabus はシラバスのアップロードを検証する。
func TestSyllabus(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	s, err := e.client.UploadSyllabus(ctx, SyllabusInput{Class: "5th", FileName: "maths.pdf", PDF: testPDF})
	if err != nil {
		t.Fatalf("UploadSyllabus()でエラーが発生: %v", err)
	}
	uploaded, ok := e.server.Upload(s.PDFURL)
	if !ok || !bytes.Equal(uploaded, testPDF) {
		t.Errorf("アップロードされた内容が一致しない: %q", uploaded)
	}

	updated, err := e.client.UpdateSyllabus(ctx, s.ID, SyllabusInput{Class: "6th", FileName: "maths.pdf", PDF: testPDF})
	if err != nil {
		t.Fatalf("UpdateSyllabus()でエラーが発生: %v", err)
	}
	if updated.Class != "6th" {
		t.Errorf("Class = %q, want 6th", updated.Class)
	}

	list, err := e.client.ListSyllabi(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSyllabi() = %v, %v", list, err)
	}
	if err := e.client.DeleteSyllabus(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSyllabus()でエラーが発生: %v", err)
	}

	tests := []struct {
		name string
		in   SyllabusInput
	}{
		{"PDFでないファイル", SyllabusInput{Class: "5th", FileName: "notes.txt", PDF: []byte("plain text")}},
		{"存在しないクラス", SyllabusInput{Class: "11th", FileName: "maths.pdf", PDF: testPDF}},
		{"ファイルなし", SyllabusInput{Class: "5th", FileName: "maths.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name+"は送信前に拒否されること", func(t *testing.T) {
			if _, err := e.client.UploadSyllabus(ctx, tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

// TestDatesheets は試験日程表のアップロードを検証する。
func TestDatesheets(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	in := DatesheetInput{ExamName: "Half Yearly", Year: "2024", Class: "10th", FileName: "hy.pdf", PDF: testPDF}
	d, err := e.client.UploadDatesheet(ctx, in)
	if err != nil {
		t.Fatalf("UploadDatesheet()でエラーが発生: %v", err)
	}
	if d.ExamName != "Half Yearly" || d.PDF == "" {
		t.Errorf("datesheet = %+v", d)
	}

	in.ExamName = "Annual"
	in.Year = "2024-25"
	if _, err := e.client.UpdateDatesheet(ctx, d.ID, in); err != nil {
		t.Fatalf("年度の範囲表記でUpdateDatesheet()がエラー: %v", err)
	}
	list, err := e.client.ListDatesheets(ctx)
	if err != nil || len(list) != 1 || list[0].ExamName != "Annual" || list[0].Year != "2024-25" {
		t.Fatalf("ListDatesheets() = %+v, %v", list, err)
	}
	if err := e.client.DeleteDatesheet(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDatesheet()でエラーが発生: %v", err)
	}

	e.rec.Reset()
	_, err = e.client.UploadDatesheet(ctx, DatesheetInput{ExamName: "Annual", Class: "10th", FileName: "a.pdf", PDF: testPDF})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("年度なし err = %v, want ErrInvalidInput", err)
	}
	if errs := e.rec.Errors(); len(errs) != 1 || errs[0] != "Please fill out all required fields and upload a valid PDF." {
		t.Errorf("エラー通知 = %v", errs)
	}
}

// TestContactsAndCounts は問い合わせと集計値を検証する。
func TestContactsAndCounts(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	e.login(t)
	ctx := context.Background()

	c1 := e.server.AddContact(fakeapi.Contact{Name: "Parent", Email: "p@example.com", Subject: "Fees", Message: "Due date?"})
	e.server.AddContact(fakeapi.Contact{Name: "Visitor", Email: "v@example.com", Subject: "Visit", Message: "Timings?"})
	e.server.SetUsers(7)

	list, err := e.client.ListContacts(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListContacts() = %v, %v", list, err)
	}
	if err := e.client.DeleteContact(ctx, c1.ID); err != nil {
		t.Fatalf("DeleteContact()でエラーが発生: %v", err)
	}

	want := map[string]int{"total-users": 7, "total-contacts": 1, "total-messages": 0}
	for _, counter := range Counters {
		n, err := e.client.Count(ctx, counter)
		if err != nil {
			t.Fatalf("Count(%s)でエラーが発生: %v", counter.Path, err)
		}
		if w, ok := want[counter.Path]; ok && n != w {
			t.Errorf("Count(%s) = %d, want %d", counter.Path, n, w)
		}
	}
}
