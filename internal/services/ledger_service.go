package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/log"
	"saldo/internal/projection"
)

// RollForwardMode selects how RollForward treats income it has already seen.
type RollForwardMode string

const (
	// Replay adds every due income on each call, so repeated calls add it again.
	Replay RollForwardMode = "replay"
	// Marker only adds income dated after the stored processed-through date.
	Marker RollForwardMode = "marker"
)

// Publisher announces ledger mutations. amqp.Client implements it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, op amqp.Op, transactionID int64) error
}

type Options struct {
	Publisher  Publisher
	Mode       RollForwardMode
	Increments *projection.Increments
	Location   *time.Location
	// Calendars caches month aggregates keyed by month and a fingerprint of
	// that month's transactions. Nil disables caching.
	Calendars cache.Cache[[]core.DayAggregate]
	Logger    *log.Logger
	// Now overrides the clock, mainly in tests.
	Now func() time.Time
}

// Ledger orchestrates store access, projections and change notifications.
type Ledger struct {
	store      ledger.Store
	publisher  Publisher
	mode       RollForwardMode
	increments projection.Increments
	loc        *time.Location
	calendars  cache.Cache[[]core.DayAggregate]
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	balanceMu sync.Mutex
	loads     singleflight.Group
}

func NewLedger(store ledger.Store, opts Options) *Ledger {
	l := &Ledger{
		store:      store,
		publisher:  opts.Publisher,
		mode:       opts.Mode,
		increments: projection.DefaultIncrements,
		loc:        opts.Location,
		calendars:  opts.Calendars,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if l.mode == "" {
		l.mode = Replay
	}
	if opts.Increments != nil {
		l.increments = *opts.Increments
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.logger == nil {
		l.logger = log.New(log.DefaultConfig())
	}
	l.logger = l.logger.WithComponent(log.ComponentLedger)
	l.structured = log.NewStructuredLogger(l.logger)
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Today is the current calendar date in the configured location.
func (l *Ledger) Today() core.Date {
	return core.DateOf(l.now().In(l.loc))
}

func (l *Ledger) Mode() RollForwardMode { return l.mode }

// Draft holds user input for a new transaction before dates are applied.
type Draft struct {
	Description string
	Amount      core.Money
	Category    core.Category
}

type AddResult struct {
	IDs     []int64
	Dates   []core.Date
	Warning string
}

// AddTransaction inserts one row per selected date. Everything is validated
// before the first write, so a rejected draft leaves the store untouched.
func (l *Ledger) AddTransaction(ctx context.Context, d Draft, dates []core.Date) (AddResult, error) {
	selected, warning, err := core.SelectDates(dates)
	if err != nil {
		return AddResult{}, err
	}

	txs := make([]core.Transaction, 0, len(selected))
	for _, day := range selected {
		t, err := core.NewTransaction(day, d.Description, d.Amount, d.Category)
		if err != nil {
			return AddResult{}, err
		}
		txs = append(txs, t)
	}

	res := AddResult{Dates: selected, Warning: warning}
	for _, t := range txs {
		id, err := l.store.Insert(ctx, t)
		if err != nil {
			return res, fmt.Errorf("insert transaction: %w", err)
		}
		res.IDs = append(res.IDs, id)
		l.structured.LogTransactionSaved(ctx, log.OpCreate, id, t.Date.String(), t.Amount.Cents, string(t.Category))
		l.publish(ctx, amqp.OpCreate, id)
	}
	if warning != "" {
		l.logger.WarnContext(ctx, "Date selection truncated", log.FieldWarning, warning, "kept", len(selected))
	}
	l.invalidate()
	return res, nil
}

// EditTransaction rewrites description, amount and category. The outflow sign
// rule applies here as well.
func (l *Ledger) EditTransaction(ctx context.Context, id int64, description string, amount core.Money, category core.Category) error {
	t, err := core.NewTransaction(l.Today(), description, amount, category)
	if err != nil {
		return err
	}
	if err := l.store.Update(ctx, id, t.Description, t.Amount, t.Category); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	l.structured.LogTransactionSaved(ctx, log.OpUpdate, id, "", t.Amount.Cents, string(t.Category))
	l.publish(ctx, amqp.OpUpdate, id)
	l.invalidate()
	return nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id int64) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	l.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
	l.publish(ctx, amqp.OpDelete, id)
	l.invalidate()
	return nil
}

type QuickResult struct {
	IDs      []int64
	Rejected []core.QuickLineError
}

// QuickAdd parses "<amount> <description>" lines and stores them dated today.
// Lines that do not parse are returned in Rejected and do not block the rest.
func (l *Ledger) QuickAdd(ctx context.Context, text string) (QuickResult, error) {
	txs, rejected := core.ParseQuickEntries(text, l.Today())
	res := QuickResult{Rejected: rejected}
	for _, t := range txs {
		id, err := l.store.Insert(ctx, t)
		if err != nil {
			return res, fmt.Errorf("insert quick entry: %w", err)
		}
		res.IDs = append(res.IDs, id)
	}
	for _, r := range rejected {
		l.logger.WarnContext(ctx, "Quick entry line rejected", "line", r.Line, log.FieldError, r.Err.Error())
	}
	if len(res.IDs) > 0 {
		l.logger.InfoContext(ctx, "Quick entries saved", "count", len(res.IDs))
		l.publish(ctx, amqp.OpQuick, 0)
		l.invalidate()
	}
	return res, nil
}

func (l *Ledger) Balance(ctx context.Context) (core.Money, error) {
	b, err := l.store.GetBalance(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("load balance: %w", err)
	}
	return b, nil
}

// SetBalance overwrites the stored balance.
func (l *Ledger) SetBalance(ctx context.Context, m core.Money) error {
	l.balanceMu.Lock()
	defer l.balanceMu.Unlock()
	if err := l.store.SetBalance(ctx, m); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	l.logger.InfoContext(ctx, "Balance set", log.NewFields().WithBalance(m.Cents).WithOperation(log.OpBalance).ToSlice()...)
	l.publish(ctx, amqp.OpBalance, 0)
	l.invalidate()
	return nil
}

type RollForwardResult struct {
	Mode    RollForwardMode
	Added   core.Money
	Balance core.Money
}

// RollForward folds due income into the balance.
//
// In Replay mode nothing records what was already folded in: calling it twice
// adds the same total twice. Marker mode advances a processed-through date to
// today and only counts income dated after it.
func (l *Ledger) RollForward(ctx context.Context) (RollForwardResult, error) {
	l.balanceMu.Lock()
	defer l.balanceMu.Unlock()

	today := l.Today()
	txs, err := l.store.List(ctx)
	if err != nil {
		return RollForwardResult{}, fmt.Errorf("load transactions: %w", err)
	}
	balance, err := l.store.GetBalance(ctx)
	if err != nil {
		return RollForwardResult{}, fmt.Errorf("load balance: %w", err)
	}

	res := RollForwardResult{Mode: l.mode, Balance: balance}
	var marker core.Date
	switch l.mode {
	case Marker:
		marker, err = l.store.GetProcessedThrough(ctx)
		if err != nil {
			return res, fmt.Errorf("load roll-forward marker: %w", err)
		}
		res.Added = projection.RollForwardSince(txs, marker, today)
	default:
		res.Added = projection.RollForwardTotal(txs, today)
	}

	if !res.Added.IsZero() {
		res.Balance = balance.Add(res.Added)
		if err := l.store.SetBalance(ctx, res.Balance); err != nil {
			return res, fmt.Errorf("set balance: %w", err)
		}
	}
	if l.mode == Marker && (marker.IsZero() || marker.Before(today)) {
		if err := l.store.SetProcessedThrough(ctx, today); err != nil {
			return res, fmt.Errorf("set roll-forward marker: %w", err)
		}
	}

	l.logger.InfoContext(ctx, "Balance rolled forward",
		log.FieldOperation, log.OpRollForward,
		log.FieldMode, string(l.mode),
		log.FieldAmountCents, res.Added.Cents,
		log.FieldBalanceCents, res.Balance.Cents)
	if !res.Added.IsZero() {
		l.publish(ctx, amqp.OpBalance, 0)
	}
	l.invalidate()
	return res, nil
}

// Transactions returns every stored transaction ordered by date.
func (l *Ledger) Transactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// Snapshot is everything the dashboard renders for one request.
type Snapshot struct {
	Today            core.Date
	Balance          core.Money
	Transactions     []core.Transaction
	Misc             []core.Transaction
	Calendar         []core.DayAggregate
	Totals           core.MonthTotals
	Forecast         core.Money
	DailySpend       decimal.Decimal
	DaysRemaining    int
	ExpectedMonthEnd core.Money
	Mode             RollForwardMode
}

type loaded struct {
	balance core.Money
	txs     []core.Transaction
}

const loadKey = "ledger"

// load reads balance and transactions once; concurrent callers share the read.
// The shared read is detached from any single caller's cancellation; each
// caller stops waiting when its own ctx ends.
func (l *Ledger) load(ctx context.Context) (loaded, error) {
	shared := context.WithoutCancel(ctx)
	ch := l.loads.DoChan(loadKey, func() (interface{}, error) {
		balance, err := l.store.GetBalance(shared)
		if err != nil {
			return nil, fmt.Errorf("load balance: %w", err)
		}
		txs, err := l.store.List(shared)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		return loaded{balance: balance, txs: txs}, nil
	})
	select {
	case <-ctx.Done():
		return loaded{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return loaded{}, res.Err
		}
		return res.Val.(loaded), nil
	}
}

func (l *Ledger) Dashboard(ctx context.Context) (Snapshot, error) {
	data, err := l.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	today := l.Today()
	s := Snapshot{
		Today:            today,
		Balance:          data.balance,
		Calendar:         l.calendar(data.txs, today.Year(), today.Month()),
		Totals:           projection.Totals(data.txs, today.Year(), today.Month()),
		Forecast:         projection.MonthEndForecast(data.balance, today, l.increments),
		DailySpend:       projection.DailySpend(data.balance, today),
		DaysRemaining:    projection.DaysRemaining(today),
		ExpectedMonthEnd: projection.ExpectedBalance(data.balance, data.txs, today, today.MonthEnd()),
		Mode:             l.mode,
	}
	for _, t := range data.txs {
		if t.IsMisc() {
			s.Misc = append(s.Misc, t)
		} else {
			s.Transactions = append(s.Transactions, t)
		}
	}
	return s, nil
}

// Calendar returns the day aggregates of any month.
func (l *Ledger) Calendar(ctx context.Context, year, month int) ([]core.DayAggregate, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d", core.ErrInvalidDate, month)
	}
	data, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return l.calendar(data.txs, year, month), nil
}

// MonthTotals splits a month's transactions into inflow and outflow.
func (l *Ledger) MonthTotals(ctx context.Context, year, month int) (core.MonthTotals, error) {
	if month < 1 || month > 12 {
		return core.MonthTotals{}, fmt.Errorf("%w: month %d", core.ErrInvalidDate, month)
	}
	data, err := l.load(ctx)
	if err != nil {
		return core.MonthTotals{}, err
	}
	return projection.Totals(data.txs, year, month), nil
}

// calendarKey names a month's aggregates by the day and amount of every
// transaction in that month, the only inputs MonthCalendar reads. A key
// therefore never outlives the data it was computed from, whichever process
// wrote it.
func calendarKey(txs []core.Transaction, year, month int) string {
	h := fnv.New64a()
	var buf [9]byte
	for _, t := range txs {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		buf[0] = byte(t.Date.Day())
		binary.BigEndian.PutUint64(buf[1:], uint64(t.Amount.Cents))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%04d-%02d:%016x", year, month, h.Sum64())
}

func (l *Ledger) calendar(txs []core.Transaction, year, month int) []core.DayAggregate {
	if l.calendars == nil {
		return projection.MonthCalendar(txs, year, month)
	}
	key := calendarKey(txs, year, month)
	if days, ok := l.calendars.Get(key); ok {
		return days
	}
	days := projection.MonthCalendar(txs, year, month)
	l.calendars.Set(key, days)
	return days
}

// Projections is the forward-looking view for an arbitrary target date.
type Projections struct {
	Today         core.Date
	Target        core.Date
	Balance       core.Money
	Expected      core.Money
	Forecast      core.Money
	DailySpend    decimal.Decimal
	DaysRemaining int
}

// ErrTargetInPast is returned when a projection target precedes today.
var ErrTargetInPast = errors.New("target date is before today")

// Project computes projections for target; a zero target means month end.
func (l *Ledger) Project(ctx context.Context, target core.Date) (Projections, error) {
	today := l.Today()
	if target.IsZero() {
		target = today.MonthEnd()
	}
	if target.Before(today) {
		return Projections{}, ErrTargetInPast
	}
	data, err := l.load(ctx)
	if err != nil {
		return Projections{}, err
	}
	return Projections{
		Today:         today,
		Target:        target,
		Balance:       data.balance,
		Expected:      projection.ExpectedBalance(data.balance, data.txs, today, target),
		Forecast:      projection.MonthEndForecast(data.balance, today, l.increments),
		DailySpend:    projection.DailySpend(data.balance, today),
		DaysRemaining: projection.DaysRemaining(today),
	}, nil
}

// invalidate makes the next read start a fresh load instead of joining one
// that may have begun before the write.
func (l *Ledger) invalidate() {
	l.loads.Forget(loadKey)
}

func (l *Ledger) publish(ctx context.Context, op amqp.Op, id int64) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishLedgerChanged(ctx, op, id); err != nil {
		// the write already succeeded
		l.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, string(op), log.FieldTransactionID, id, log.FieldError, err.Error())
	}
}
