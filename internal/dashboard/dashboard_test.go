package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/schooladmin/internal/admin"
	"github.com/nao1215/schooladmin/pkg/session"
)

// fakeSource はパスごとに固定値を返すSource。
type fakeSource struct {
	mu     sync.Mutex
	counts map[string]int
	fail   string
}

func (f *fakeSource) Count(_ context.Context, counter admin.Counter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if counter.Path == f.fail {
		return 0, errors.New("boom")
	}
	return f.counts[counter.Path], nil
}

func (f *fakeSource) set(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[path] = n
}

// newTestService はインメモリSQLiteを使うServiceを返す。
func newTestService(t *testing.T) (*Service, *fakeSource) {
	t.Helper()
	ctx := context.Background()

	sessions, err := session.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	store, err := NewAlertStore(ctx, sessions.DB())
	if err != nil {
		t.Fatalf("NewAlertStore()でエラーが発生: %v", err)
	}

	src := &fakeSource{counts: map[string]int{}}
	svc := NewService(src, store)
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, src
}

// TestCompare は増加アラートの生成規則を検証する。
func TestCompare(t *testing.T) {
	t.Parallel()

	users := admin.Counters[0]
	contacts := admin.Counters[1]
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		previous map[string]int
		totals   []Total
		want     []string
	}{
		{"前回値がない場合は0からの増加とみなすこと", nil, []Total{{users, 4}}, []string{"The value of Total Users has increased by 4."}},
		{"変化がなければアラートなし", map[string]int{users.Key: 4}, []Total{{users, 4}}, nil},
		{"減少ではアラートなし", map[string]int{users.Key: 4}, []Total{{users, 1}}, nil},
		{
			"増加した項目だけがアラートになること",
			map[string]int{users.Key: 4, contacts.Key: 1},
			[]Total{{users, 4}, {contacts, 3}},
			[]string{"The value of Total Contacts has increased by 2."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Compare(tt.previous, tt.totals, at)
			if len(got) != len(tt.want) {
				t.Fatalf("件数 = %d, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Message != tt.want[i] {
					t.Errorf("Message = %q, want %q", a.Message, tt.want[i])
				}
				if a.Read || a.ID == "" || !a.CreatedAt.Equal(at) {
					t.Errorf("alert = %+v", a)
				}
			}
		})
	}
}

// TestRefresh は更新ごとのアラート生成と並び順を検証する。
func TestRefresh(t *testing.T) {
	t.Parallel()
	svc, src := newTestService(t)
	ctx := context.Background()

	src.set("total-users", 3)
	first, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh()でエラーが発生: %v", err)
	}
	if len(first.Totals) != len(admin.Counters) {
		t.Fatalf("len(Totals) = %d", len(first.Totals))
	}
	if len(first.NewAlerts) != 1 || first.NewAlerts[0].Title != "Increase in Total Users" {
		t.Fatalf("NewAlerts = %+v", first.NewAlerts)
	}

	second, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh()でエラーが発生: %v", err)
	}
	if len(second.NewAlerts) != 0 {
		t.Errorf("変化がないのにアラート = %+v", second.NewAlerts)
	}

	src.set("total-users", 5)
	src.set("total-syllabus", 2)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh()でエラーが発生: %v", err)
	}

	all, err := svc.Store().List(ctx)
	if err != nil {
		t.Fatalf("List()でエラーが発生: %v", err)
	}
	wantTitles := []string{"Increase in Total Users", "Increase in Total Syllabus Uploaded", "Increase in Total Users"}
	if len(all) != len(wantTitles) {
		t.Fatalf("len(List()) = %d, want %d", len(all), len(wantTitles))
	}
	for i, a := range all {
		if a.Title != wantTitles[i] {
			t.Errorf("List()[%d].Title = %q, want %q", i, a.Title, wantTitles[i])
		}
	}
	if all[0].Increase != 2 || all[2].Increase != 3 {
		t.Errorf("増加量 = %d, %d, want 2, 3", all[0].Increase, all[2].Increase)
	}
}

// TestRefreshFailure は取得失敗時に何も保存されないことを検証する。
func TestRefreshFailure(t *testing.T) {
	t.Parallel()
	svc, src := newTestService(t)
	ctx := context.Background()

	src.set("total-users", 3)
	src.fail = "total-messages"
	if _, err := svc.Refresh(ctx); err == nil {
		t.Fatal("エラーが返されなかった")
	}

	snapshot, err := svc.Store().Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot()でエラーが発生: %v", err)
	}
	if len(snapshot) != 0 {
		t.Errorf("失敗時にスナップショットが保存された: %v", snapshot)
	}
	if n, _ := svc.Store().UnreadCount(ctx); n != 0 {
		t.Errorf("失敗時にアラートが保存された: %d件", n)
	}
}

// TestAlertStoreReadState は既読管理を検証する。
func TestAlertStoreReadState(t *testing.T) {
	t.Parallel()
	svc, src := newTestService(t)
	ctx := context.Background()
	store := svc.Store()

	src.set("total-users", 1)
	src.set("total-contacts", 1)
	src.set("total-messages", 1)
	res, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh()でエラーが発生: %v", err)
	}
	ids := make([]string, 0, len(res.NewAlerts))
	for _, a := range res.NewAlerts {
		ids = append(ids, a.ID)
	}

	if err := store.MarkRead(ctx, ids[0]); err != nil {
		t.Fatalf("MarkRead()でエラーが発生: %v", err)
	}
	unread, err := store.Unread(ctx)
	if err != nil || len(unread) != 2 {
		t.Fatalf("Unread() = %d件, %v", len(unread), err)
	}

	read, err := store.ToggleRead(ctx, ids[0])
	if err != nil || read {
		t.Errorf("ToggleRead() = %v, %v, want false", read, err)
	}
	if n, _ := store.UnreadCount(ctx); n != 3 {
		t.Errorf("UnreadCount() = %d, want 3", n)
	}

	latest, err := store.Latest(ctx, 2)
	if err != nil || len(latest) != 2 || latest[0].ID != ids[0] {
		t.Errorf("Latest(2) = %+v, %v", latest, err)
	}

	updated, err := store.MarkAllRead(ctx)
	if err != nil || updated != 3 {
		t.Errorf("MarkAllRead() = %d, %v, want 3", updated, err)
	}
	if n, _ := store.UnreadCount(ctx); n != 0 {
		t.Errorf("UnreadCount() = %d, want 0", n)
	}

	if err := store.MarkRead(ctx, "missing"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("MarkRead(missing) err = %v, want ErrAlertNotFound", err)
	}
	if _, err := store.ToggleRead(ctx, "missing"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("ToggleRead(missing) err = %v, want ErrAlertNotFound", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset()でエラーが発生: %v", err)
	}
	all, _ := store.List(ctx)
	snapshot, _ := store.Snapshot(ctx)
	if len(all) != 0 || len(snapshot) != 0 {
		t.Errorf("Reset()後に %d件のアラートと %d件のスナップショットが残っている", len(all), len(snapshot))
	}
}
