package sql

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/relq/dialect"
)

// QueryStats holds execution counters of a StatsDriver. Counters are also
// kept per statement text, since a rendered query shape always produces the
// same text whatever values it binds.
type QueryStats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64

	mu         sync.Mutex
	statements map[string]*StatementStats
}

// StatementStats are the counters of one statement text.
type StatementStats struct {
	Query    string
	Calls    int64
	Errors   int64
	Duration time.Duration
	Max      time.Duration
}

// Avg returns the mean duration of a call.
func (s StatementStats) Avg() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Calls)
}

func (s *QueryStats) add(query string, d time.Duration, isQuery, slow bool, err error) {
	if isQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.duration.Add(int64(d))
	if slow {
		s.slow.Add(1)
	}
	if err != nil {
		s.errors.Add(1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statements == nil {
		s.statements = make(map[string]*StatementStats)
	}
	st, ok := s.statements[query]
	if !ok {
		st = &StatementStats{Query: query}
		s.statements[query] = st
	}
	st.Calls++
	st.Duration += d
	st.Max = max(st.Max, d)
	if err != nil {
		st.Errors++
	}
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.errors.Load(),
	}
	s.mu.Lock()
	snap.Statements = make([]StatementStats, 0, len(s.statements))
	for _, st := range s.statements {
		snap.Statements = append(snap.Statements, *st)
	}
	s.mu.Unlock()
	slices.SortFunc(snap.Statements, func(a, b StatementStats) int {
		if c := cmp.Compare(b.Duration, a.Duration); c != 0 {
			return c
		}
		return cmp.Compare(a.Query, b.Query)
	})
	return snap
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
	s.mu.Lock()
	s.statements = nil
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	// Statements is ordered by total duration, most expensive first.
	Statements []StatementStats
}

// AvgQueryDuration returns the average duration of a statement.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// Top returns the n most expensive statements. A negative n returns none.
func (s StatsSnapshot) Top(n int) []StatementStats {
	return s.Statements[:max(0, min(n, len(s.Statements)))]
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d statements=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, len(s.Statements), s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQuery describes a statement that exceeded the slow threshold.
type SlowQuery struct {
	Backend  dialect.Backend
	Query    string
	Args     []any
	Duration time.Duration
	Err      error
}

// SlowQueryHook is called for every slow statement.
type SlowQueryHook func(ctx context.Context, q SlowQuery)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	*Driver
	stats     *QueryStats
	threshold atomic.Int64
	hook      SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement counts as
// slow. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold.Store(int64(d))
	}
}

// WithSlowQueryHook sets a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow statements to l, or to the default logger when
// l is nil. Bound values are not logged, only their count.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, q SlowQuery) {
		attrs := []any{"backend", q.Backend, "duration", q.Duration, "query", q.Query, "args", len(q.Args)}
		if q.Err != nil {
			attrs = append(attrs, "err", q.Err)
		}
		l.WarnContext(ctx, "slow query", attrs...)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv := sql.NewStatsDriver(base,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	err := sql.FetchWith(ctx, drv, query, &rows)
//	for _, st := range drv.QueryStats().Stats().Top(5) {
//	    logger.Info("statement", "query", st.Query, "avg", st.Avg())
//	}
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}}
	s.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the collected statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.threshold.Store(int64(threshold))
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, time.Since(start), true, err)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, time.Since(start), false, err)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, took time.Duration, isQuery bool, err error) {
	slow := took > d.SlowThreshold()
	d.stats.add(query, took, isQuery, slow, err)
	if slow && d.hook != nil {
		argv, _ := args.([]any)
		d.hook(ctx, SlowQuery{Backend: d.Backend(), Query: query, Args: argv, Duration: took, Err: err})
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, driver: d}, nil
}

type statsTx struct {
	dialect.Tx
	driver *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, time.Since(start), true, err)
	return err
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, time.Since(start), false, err)
	return err
}

// LogDriver logs every statement it runs at debug level.
type LogDriver struct {
	*Driver
	log *slog.Logger
}

// NewLogDriver wraps a Driver with statement logging. A nil logger logs to
// the default logger.
func NewLogDriver(drv *Driver, l *slog.Logger) *LogDriver {
	if l == nil {
		l = slog.Default()
	}
	return &LogDriver{Driver: drv, log: l.With("backend", drv.Backend())}
}

// Query executes a query and logs it.
func (d *LogDriver) Query(ctx context.Context, query string, args, v any) error {
	return logged(ctx, d.log, "query", query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec executes a statement and logs it.
func (d *LogDriver) Exec(ctx context.Context, query string, args, v any) error {
	return logged(ctx, d.log, "exec", query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction whose statements are logged with tx=true.
func (d *LogDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		d.log.ErrorContext(ctx, "begin", "err", err)
		return nil, err
	}
	d.log.DebugContext(ctx, "begin")
	return &logTx{Tx: tx, log: d.log.With("tx", true)}, nil
}

type logTx struct {
	dialect.Tx
	log *slog.Logger
}

func (tx *logTx) Query(ctx context.Context, query string, args, v any) error {
	return logged(ctx, tx.log, "query", query, args, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *logTx) Exec(ctx context.Context, query string, args, v any) error {
	return logged(ctx, tx.log, "exec", query, args, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

func (tx *logTx) Commit() error {
	err := tx.Tx.Commit()
	tx.log.Debug("commit", "err", err)
	return err
}

func (tx *logTx) Rollback() error {
	err := tx.Tx.Rollback()
	tx.log.Debug("rollback", "err", err)
	return err
}

func logged(ctx context.Context, l *slog.Logger, msg, query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	if err != nil {
		l.ErrorContext(ctx, msg, "query", query, "args", args, "duration", time.Since(start), "err", err)
		return err
	}
	l.DebugContext(ctx, msg, "query", query, "args", args, "duration", time.Since(start))
	return nil
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*statsTx)(nil)
	_ dialect.Driver = (*LogDriver)(nil)
	_ dialect.Tx     = (*logTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
func OpenWithStats(backend dialect.Backend, source string, opts ...StatsOption) (*StatsDriver, error) {
	drv, err := Open(backend, source)
	if err != nil {
		return nil, err
	}
	return NewStatsDriver(drv, opts...), nil
}
