package dashboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/schooladmin/internal/admin"
	"golang.org/x/sync/errgroup"
)

// Source は集計値の取得元。*admin.Clientが満たす。
type Source interface {
	Count(ctx context.Context, counter admin.Counter) (int, error)
}

// Total は集計項目とその値。
type Total struct {
	Counter admin.Counter
	Value   int
}

// Result はRefreshの結果。
type Result struct {
	// Totals は最新の集計値（admin.Countersの順）。
	Totals []Total
	// NewAlerts は今回の更新で生成されたアラート。
	NewAlerts []Alert
}

// Service はダッシュボードの更新処理。
type Service struct {
	source Source
	store  *AlertStore
	now    func() time.Time
}

// NewService は新しいServiceを生成する。
func NewService(source Source, store *AlertStore) *Service {
	return &Service{source: source, store: store, now: time.Now}
}

// Fetch は全集計値を並行して取得する。
// 1つが失敗しても残りは取り消さずに完了を待ち、最初のエラーを返す。
func (s *Service) Fetch(ctx context.Context) ([]Total, error) {
	totals := make([]Total, len(admin.Counters))
	var eg errgroup.Group
	for i, counter := range admin.Counters {
		eg.Go(func() error {
			n, err := s.source.Count(ctx, counter)
			if err != nil {
				return fmt.Errorf("%sの取得に失敗: %w", counter.Label, err)
			}
			totals[i] = Total{Counter: counter, Value: n}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return totals, nil
}

// Refresh は集計値を取得して前回のスナップショットと比較し、増加した項目のアラートを保存する。
// スナップショットがない項目は0から増加したものとして扱う。
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	totals, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	previous, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	alerts := Compare(previous, totals, at)
	if err := s.store.Commit(ctx, totals, alerts, at); err != nil {
		return nil, err
	}
	if len(alerts) > 0 {
		log.Printf("[Dashboard] %d件の増加アラートを生成しました", len(alerts))
	}
	return &Result{Totals: totals, NewAlerts: alerts}, nil
}

// Store はアラートの保存先を返す。
func (s *Service) Store() *AlertStore {
	return s.store
}

// Compare は前回値と最新値を比較し、増加した項目ごとに未読アラートを生成する。
func Compare(previous map[string]int, totals []Total, at time.Time) []Alert {
	var alerts []Alert
	for _, t := range totals {
		diff := t.Value - previous[t.Counter.Key]
		if diff <= 0 {
			continue
		}
		alerts = append(alerts, Alert{
			ID:         uuid.New().String(),
			CounterKey: t.Counter.Key,
			Title:      "Increase in " + t.Counter.Label,
			Message:    fmt.Sprintf("The value of %s has increased by %d.", t.Counter.Label, diff),
			Increase:   diff,
			CreatedAt:  at,
		})
	}
	return alerts
}
