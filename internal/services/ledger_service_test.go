package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/ledger/memory"
	"saldo/internal/log"
)

type fakePublisher struct {
	mu  sync.Mutex
	ops []amqp.Op
	err error
}

func (p *fakePublisher) PublishLedgerChanged(_ context.Context, op amqp.Op, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
	return p.err
}

// 2024-03-15 is a Friday
var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T, mode RollForwardMode, seed ...core.Transaction) (*Ledger, *memory.Store, *fakePublisher) {
	t.Helper()
	store := memory.New(seed...)
	pub := &fakePublisher{}
	l := NewLedger(store, Options{
		Publisher: pub,
		Mode:      mode,
		Location:  time.UTC,
		Calendars: cache.NewLRUCache[[]core.DayAggregate](12, time.Minute),
		Logger:    log.New(log.Config{Output: io.Discard}),
		Now:       func() time.Time { return fixedNow },
	})
	return l, store, pub
}

func seedTx(y, m, d int, desc string, cents int64, cat core.Category) core.Transaction {
	t, err := core.NewTransaction(core.NewDate(y, m, d), desc, core.Cents(cents), cat)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAddTransactionOutflowSign(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Replay)

	res, err := l.AddTransaction(ctx, Draft{Description: "groceries", Amount: core.Cents(5000), Category: core.Outflow},
		[]core.Date{core.NewDate(2024, 3, 15)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(res.IDs) != 1 || res.Warning != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	txs, _ := store.List(ctx)
	if txs[0].Amount.Cents != -5000 {
		t.Fatalf("outflow 50 must be stored as -50, got %s", txs[0].Amount)
	}
	if len(pub.ops) != 1 || pub.ops[0] != amqp.OpCreate {
		t.Fatalf("expected one create event, got %v", pub.ops)
	}
}

func TestAddTransactionDateSelection(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, Replay)

	var dates []core.Date
	for d := 1; d <= 7; d++ {
		dates = append(dates, core.NewDate(2024, 3, d))
	}
	res, err := l.AddTransaction(ctx, Draft{Description: "trip", Amount: core.Cents(1000), Category: core.Outflow}, dates)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(res.IDs) != 5 || res.Warning != core.WarnTooManyDays {
		t.Fatalf("expected 5 rows with warning, got %+v", res)
	}

	res, err = l.AddTransaction(ctx, Draft{Description: "gap", Amount: core.Cents(1000), Category: core.VariableIncome},
		[]core.Date{core.NewDate(2024, 3, 20), core.NewDate(2024, 3, 10)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(res.IDs) != 1 || !res.Dates[0].Equal(core.NewDate(2024, 3, 10)) || res.Warning != core.WarnNotConsecutive {
		t.Fatalf("expected first date only, got %+v", res)
	}
	if txs, _ := store.List(ctx); len(txs) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(txs))
	}
}

func TestAddTransactionValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Replay)
	dates := []core.Date{core.NewDate(2024, 3, 15)}

	if _, err := l.AddTransaction(ctx, Draft{Description: " ", Amount: core.Cents(100), Category: core.Outflow}, dates); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if _, err := l.AddTransaction(ctx, Draft{Description: "x", Category: core.Outflow}, dates); !errors.Is(err, core.ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}
	if _, err := l.AddTransaction(ctx, Draft{Description: "x", Amount: core.Cents(1), Category: core.Outflow}, nil); !errors.Is(err, core.ErrNoDates) {
		t.Fatalf("expected ErrNoDates, got %v", err)
	}
	if txs, _ := store.List(ctx); len(txs) != 0 {
		t.Fatalf("nothing must be written, got %d rows", len(txs))
	}
	if len(pub.ops) != 0 {
		t.Fatalf("no events expected, got %v", pub.ops)
	}
}

func TestEditAndDelete(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Replay, seedTx(2024, 3, 1, "rent", 90000, core.Outflow))

	if err := l.EditTransaction(ctx, 1, "rent", core.Cents(95000), core.Outflow); err != nil {
		t.Fatalf("edit: %v", err)
	}
	txs, _ := store.List(ctx)
	if txs[0].Amount.Cents != -95000 || !txs[0].Date.Equal(core.NewDate(2024, 3, 1)) {
		t.Fatalf("edit must normalize sign and keep date: %+v", txs[0])
	}
	if err := l.EditTransaction(ctx, 1, "", core.Cents(1), core.Outflow); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := l.EditTransaction(ctx, 99, "x", core.Cents(1), core.Outflow); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := l.DeleteTransaction(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := l.DeleteTransaction(ctx, 1); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.ops) != 2 || pub.ops[0] != amqp.OpUpdate || pub.ops[1] != amqp.OpDelete {
		t.Fatalf("unexpected events %v", pub.ops)
	}
}

func TestQuickAdd(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Replay)

	res, err := l.QuickAdd(ctx, "-50 ifood\nnonsense\n200 sold bike")
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if len(res.IDs) != 2 || len(res.Rejected) != 1 || res.Rejected[0].Line != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	txs, _ := store.List(ctx)
	for _, tx := range txs {
		if !tx.IsMisc() || !tx.Date.Equal(core.NewDate(2024, 3, 15)) {
			t.Fatalf("quick entry must be misc and dated today: %+v", tx)
		}
	}
	if len(pub.ops) != 1 || pub.ops[0] != amqp.OpQuick {
		t.Fatalf("expected one quick event, got %v", pub.ops)
	}
}

func TestRollForwardReplayIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, Replay,
		seedTx(2024, 3, 1, "salary", 10000, core.FixedIncome),
		seedTx(2024, 3, 15, "side gig", 5000, core.VariableIncome),
		seedTx(2024, 3, 20, "future", 7000, core.VariableIncome),
		seedTx(2024, 3, 2, "rent", 3000, core.Outflow),
	)
	_ = store.SetBalance(ctx, core.Cents(100000))

	res, err := l.RollForward(ctx)
	if err != nil {
		t.Fatalf("roll forward: %v", err)
	}
	if res.Added.Cents != 15000 || res.Balance.Cents != 115000 {
		t.Fatalf("first roll-forward: %+v", res)
	}
	res, err = l.RollForward(ctx)
	if err != nil {
		t.Fatalf("roll forward: %v", err)
	}
	if res.Added.Cents != 15000 || res.Balance.Cents != 130000 {
		t.Fatalf("second roll-forward must add 150 again: %+v", res)
	}
	if b, _ := store.GetBalance(ctx); b.Cents != 130000 {
		t.Fatalf("stored balance = %s", b)
	}
}

func TestRollForwardMarker(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Marker,
		seedTx(2024, 3, 1, "salary", 10000, core.FixedIncome),
		seedTx(2024, 3, 15, "side gig", 5000, core.VariableIncome),
	)
	_ = store.SetBalance(ctx, core.Cents(100000))

	res, err := l.RollForward(ctx)
	if err != nil || res.Added.Cents != 15000 || res.Balance.Cents != 115000 {
		t.Fatalf("first roll-forward: %+v %v", res, err)
	}
	res, err = l.RollForward(ctx)
	if err != nil || !res.Added.IsZero() || res.Balance.Cents != 115000 {
		t.Fatalf("second roll-forward must add nothing: %+v %v", res, err)
	}
	if d, _ := store.GetProcessedThrough(ctx); !d.Equal(core.NewDate(2024, 3, 15)) {
		t.Fatalf("marker = %s", d)
	}
	if len(pub.ops) != 1 {
		t.Fatalf("only the effective roll-forward publishes, got %v", pub.ops)
	}
}

func TestDashboardSnapshot(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, Replay,
		seedTx(2024, 3, 20, "bonus", 20000, core.VariableIncome),
		seedTx(2024, 4, 1, "april", 50000, core.FixedIncome),
		seedTx(2024, 3, 15, "[Diversos] ifood", 5000, core.Outflow),
	)
	_ = store.SetBalance(ctx, core.Cents(100000))

	s, err := l.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if s.ExpectedMonthEnd.Cents != 120000 {
		t.Fatalf("expected balance at month end = %s, want 1200.00", s.ExpectedMonthEnd)
	}
	if len(s.Transactions) != 2 || len(s.Misc) != 1 {
		t.Fatalf("misc split: %d regular, %d misc", len(s.Transactions), len(s.Misc))
	}
	if s.DaysRemaining != 17 || len(s.Calendar) != 31 {
		t.Fatalf("days remaining %d, calendar %d", s.DaysRemaining, len(s.Calendar))
	}
	if s.Totals.Net.Cents != 15000 {
		t.Fatalf("month net = %s", s.Totals.Net)
	}
	want := decimal.NewFromInt(1000).DivRound(decimal.NewFromInt(17), 8)
	if !s.DailySpend.Equal(want) {
		t.Fatalf("daily spend = %s, want %s", s.DailySpend, want)
	}
	if s.Forecast.Cents != 100000+8*8000+3*6000+2*5000 {
		t.Fatalf("forecast = %s", s.Forecast)
	}
}

func TestCalendarRecomputedAfterWrite(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t, Replay)

	days, err := l.Calendar(ctx, 2024, 3)
	if err != nil || !days[9].Total.IsZero() {
		t.Fatalf("empty calendar expected: %v", err)
	}
	if _, err := l.AddTransaction(ctx, Draft{Description: "x", Amount: core.Cents(700), Category: core.VariableIncome},
		[]core.Date{core.NewDate(2024, 3, 10)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	days, _ = l.Calendar(ctx, 2024, 3)
	if days[9].Total.Cents != 700 || days[9].Class != core.DayHighlight {
		t.Fatalf("stale calendar: %+v", days[9])
	}
	if _, err := l.Calendar(ctx, 2024, 13); err == nil {
		t.Fatal("expected invalid month error")
	}
}

func ledgerOn(store ledger.Store, calendars cache.Cache[[]core.DayAggregate]) *Ledger {
	return NewLedger(store, Options{
		Location:  time.UTC,
		Calendars: calendars,
		Logger:    log.New(log.Config{Output: io.Discard}),
		Now:       func() time.Time { return fixedNow },
	})
}

func calendarSum(days []core.DayAggregate) core.Money {
	var sum core.Money
	for _, d := range days {
		sum = sum.Add(d.Total)
	}
	return sum
}

var refund = Draft{Description: "refund", Amount: core.Cents(10000), Category: core.VariableIncome}

func TestCalendarKeyFollowsMonthContent(t *testing.T) {
	march := []core.Transaction{seedTx(2024, 3, 10, "a", 500, core.VariableIncome)}
	base := calendarKey(march, 2024, 3)

	if got := calendarKey(append(march, seedTx(2024, 4, 1, "b", 900, core.VariableIncome)), 2024, 3); got != base {
		t.Fatalf("other months must not change the key: %s vs %s", got, base)
	}
	if got := calendarKey([]core.Transaction{seedTx(2024, 3, 10, "a", 600, core.VariableIncome)}, 2024, 3); got == base {
		t.Fatal("amount change must change the key")
	}
	if got := calendarKey([]core.Transaction{seedTx(2024, 3, 11, "a", 500, core.VariableIncome)}, 2024, 3); got == base {
		t.Fatal("day change must change the key")
	}
	if got := calendarKey(nil, 2024, 3); got == base {
		t.Fatal("empty month must differ")
	}
}

func TestDashboardSeesWritesFromAnotherInstance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	server := ledgerOn(store, cache.NewLRUCache[[]core.DayAggregate](12, time.Hour))
	other := ledgerOn(store, cache.NewLRUCache[[]core.DayAggregate](12, time.Hour))

	if _, err := server.Dashboard(ctx); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if _, err := other.AddTransaction(ctx, refund, []core.Date{core.NewDate(2024, 3, 10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	s, err := server.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if s.Totals.Net.Cents != 10000 {
		t.Fatalf("month net = %s", s.Totals.Net)
	}
	if sum := calendarSum(s.Calendar); sum.Cents != s.Totals.Net.Cents {
		t.Fatalf("calendar sum %s, month net %s", sum, s.Totals.Net)
	}
	if s.Calendar[9].Total.Cents != 10000 {
		t.Fatalf("day 10 = %s", s.Calendar[9].Total)
	}
	days, err := server.Calendar(ctx, 2024, 3)
	if err != nil || days[9].Total.Cents != 10000 {
		t.Fatalf("calendar day 10 = %s, %v", days[9].Total, err)
	}
}

// gatedStore parks the first List call, after it has read the data, until
// release is closed.
type gatedStore struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newGatedStore(seed ...core.Transaction) *gatedStore {
	return &gatedStore{
		Store:   memory.New(seed...),
		entered: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (s *gatedStore) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.Store.List(ctx)
	first := false
	s.once.Do(func() { first = true })
	if !first {
		return txs, err
	}
	close(s.entered)
	<-s.release
	s.ctxErr <- ctx.Err()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return txs, err
}

func TestWriteDuringInFlightLoad(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	l := ledgerOn(store, cache.NewLRUCache[[]core.DayAggregate](12, time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := l.Dashboard(ctx)
		done <- err
	}()
	<-store.entered

	if _, err := l.AddTransaction(ctx, refund, []core.Date{core.NewDate(2024, 3, 10)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	// must not wait on the load parked before the write
	mt, err := l.MonthTotals(ctx, 2024, 3)
	if err != nil || mt.Net.Cents != 10000 {
		t.Fatalf("read after write: %+v %v", mt, err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("parked dashboard: %v", err)
	}

	days, err := l.Calendar(ctx, 2024, 3)
	if err != nil || days[9].Total.Cents != 10000 {
		t.Fatalf("day 10 after committed write = %s, %v", days[9].Total, err)
	}
	s, err := l.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if sum := calendarSum(s.Calendar); sum.Cents != s.Totals.Net.Cents || sum.Cents != 10000 {
		t.Fatalf("calendar sum %s, month net %s", sum, s.Totals.Net)
	}
}

func TestBalanceReadAfterSetDuringInFlightLoad(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	l := ledgerOn(store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := l.Dashboard(ctx)
		done <- err
	}()
	<-store.entered

	if err := l.SetBalance(ctx, core.Cents(4200)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	p, err := l.Project(ctx, core.Date{})
	if err != nil || p.Balance.Cents != 4200 {
		t.Fatalf("balance after write = %s, %v", p.Balance, err)
	}
	close(store.release)
	<-done
}

func TestLoadSurvivesCallerCancellation(t *testing.T) {
	store := newGatedStore()
	l := ledgerOn(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Dashboard(ctx)
		done <- err
	}()
	<-store.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: %v", err)
	}

	close(store.release)
	if err := <-store.ctxErr; err != nil {
		t.Fatalf("shared load saw the caller's cancellation: %v", err)
	}
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, Replay, seedTx(2024, 3, 20, "bonus", 20000, core.VariableIncome))
	_ = store.SetBalance(ctx, core.Cents(100000))

	p, err := l.Project(ctx, core.Date{})
	if err != nil || !p.Target.Equal(core.NewDate(2024, 3, 31)) || p.Expected.Cents != 120000 {
		t.Fatalf("default target: %+v %v", p, err)
	}
	p, _ = l.Project(ctx, core.NewDate(2024, 3, 19))
	if p.Expected.Cents != 100000 {
		t.Fatalf("target before bonus: %s", p.Expected)
	}
	if _, err := l.Project(ctx, core.NewDate(2024, 3, 1)); !errors.Is(err, ErrTargetInPast) {
		t.Fatalf("expected ErrTargetInPast, got %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	l, store, pub := newTestLedger(t, Replay)
	pub.err = errors.New("broker down")

	if err := l.SetBalance(ctx, core.Cents(500)); err != nil {
		t.Fatalf("set balance must succeed: %v", err)
	}
	if b, _ := store.GetBalance(ctx); b.Cents != 500 {
		t.Fatalf("balance = %s", b)
	}
}

type failingStore struct{ *memory.Store }

func (failingStore) List(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("disk on fire")
}

func TestDashboardPropagatesStoreErrors(t *testing.T) {
	l := NewLedger(failingStore{memory.New()}, Options{Logger: log.New(log.Config{Output: io.Discard})})
	if _, err := l.Dashboard(context.Background()); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := l.RollForward(context.Background()); err == nil {
		t.Fatal("expected store error")
	}
}

func TestMonthTotals(t *testing.T) {
	l, _, _ := newTestLedger(t, Replay,
		seedTx(2024, 3, 1, "Salary", 300000, core.FixedIncome),
		seedTx(2024, 3, 2, "Rent", 120000, core.Outflow),
		seedTx(2024, 4, 2, "Rent", 120000, core.Outflow),
	)
	mt, err := l.MonthTotals(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("MonthTotals: %v", err)
	}
	if mt.Inflow.Cents != 300000 || mt.Outflow.Cents != -120000 || mt.Net.Cents != 180000 {
		t.Fatalf("unexpected totals: %+v", mt)
	}
	if _, err := l.MonthTotals(context.Background(), 2024, 13); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
