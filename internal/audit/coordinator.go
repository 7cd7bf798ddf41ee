package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docstore/internal/domain"
	"docstore/internal/errutil"
)

// Result is the outcome of a committed save. AuditErr is set when the business
// data committed but its deferred audit rows could not be written.
type Result struct {
	Affected int
	AuditErr error
}

// Outcome is delivered by SaveAsync.
type Outcome struct {
	Result
	Err error
}

// DeferredFailure describes business data that committed without some of its
// audit rows.
type DeferredFailure struct {
	Entries []EntrySummary
	Err     error
	At      time.Time
}

// FailureNotifier is told about every deferred audit failure.
type FailureNotifier interface {
	NotifyDeferredFailure(ctx context.Context, f DeferredFailure) error
}

// Coordinator runs the two-phase audited save.
type Coordinator struct {
	builder  *Builder
	logger   *slog.Logger
	metrics  *Metrics
	notifier FailureNotifier
	now      func() time.Time
	newID    func() uuid.UUID
}

type Option func(*Coordinator)

func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

func WithMetrics(m *Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

func WithNotifier(n FailureNotifier) Option { return func(c *Coordinator) { c.notifier = n } }

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

func WithIDGenerator(gen func() uuid.UUID) Option { return func(c *Coordinator) { c.newID = gen } }

func NewCoordinator(policy *Policy, opts ...Option) *Coordinator {
	c := &Coordinator{
		builder: NewBuilder(policy),
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "audit")
	return c
}

// Save commits the unit of work together with the audit rows of every audited
// change. Rows whose values depend on the commit are written by a second commit
// right after the first; its failure is reported in Result.AuditErr and never
// turns a successful primary commit into an error.
func (c *Coordinator) Save(ctx context.Context, uow UnitOfWork) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ts := c.now().UTC()

	ready, pending, err := c.capture(uow.Changes())
	if err != nil {
		return Result{}, err
	}

	audits, err := c.materialize(ready, ts)
	if err != nil {
		return Result{}, err
	}
	uow.Stage(audits...)

	affected, err := uow.Commit(ctx)
	if err != nil && !errors.Is(err, ErrNotRefreshed) {
		return Result{}, primaryCommitError(err)
	}
	c.metrics.rowsCommitted("primary", len(audits))

	if err != nil {
		// Generated values never reached the entities, so pending rows cannot
		// be resolved.
		if len(pending) == 0 {
			c.logger.WarnContext(ctx, "entities not refreshed after commit", "error", err)
			return Result{Affected: affected}, nil
		}
		return Result{Affected: affected, AuditErr: c.reportDeferred(ctx, pending, err)}, nil
	}
	if len(pending) == 0 {
		return Result{Affected: affected}, nil
	}

	if err := c.commitDeferred(ctx, uow, pending, ts); err != nil {
		return Result{Affected: affected, AuditErr: c.reportDeferred(ctx, pending, err)}, nil
	}
	return Result{Affected: affected}, nil
}

// SaveAsync runs Save on its own goroutine. The channel yields exactly one
// Outcome and is then closed. The unit of work must not be used until then.
func (c *Coordinator) SaveAsync(ctx context.Context, uow UnitOfWork) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := c.Save(ctx, uow)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// SaveWithoutAudit commits the unit of work with no audit capture. It is for
// changes the policy would never audit, such as access logging.
func (c *Coordinator) SaveWithoutAudit(ctx context.Context, uow UnitOfWork) (int, error) {
	return uow.Commit(ctx)
}

func (c *Coordinator) capture(changes []Change) (ready, pending []*Entry, err error) {
	for _, ch := range changes {
		e, err := c.builder.Build(ch)
		if err != nil {
			return nil, nil, err
		}
		if e == nil {
			continue
		}
		if e.ChangedCount() == 0 {
			c.metrics.entryDiscarded()
			c.logger.Debug("audit entry discarded", "kind", e.Kind, "operation", e.Operation, "key_values", e.KeyValues)
			continue
		}
		if e.HasPending() {
			pending = append(pending, e)
		} else {
			ready = append(ready, e)
		}
	}
	return ready, pending, nil
}

func (c *Coordinator) materialize(entries []*Entry, ts time.Time) ([]domain.Audit, error) {
	audits := make([]domain.Audit, 0, len(entries))
	for _, e := range entries {
		a, err := e.ToAudit(c.newID(), ts)
		if err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, nil
}

func (c *Coordinator) commitDeferred(ctx context.Context, uow UnitOfWork, pending []*Entry, ts time.Time) error {
	for _, e := range pending {
		if err := e.resolve(); err != nil {
			return err
		}
	}
	audits, err := c.materialize(pending, ts)
	if err != nil {
		return err
	}
	uow.Stage(audits...)
	if _, err := uow.Commit(ctx); err != nil {
		return err
	}
	c.metrics.rowsCommitted("deferred", len(audits))
	return nil
}

func (c *Coordinator) reportDeferred(ctx context.Context, pending []*Entry, cause error) error {
	summaries := make([]EntrySummary, len(pending))
	for i, e := range pending {
		summaries[i] = e.Summary()
	}
	err := deferredCommitError(cause, summaries)

	c.metrics.deferredFailed()
	for _, s := range summaries {
		errutil.LogError(ctx, c.logger, "business data committed without audit row", err,
			"kind", s.Kind, "operation", s.Operation, "key_values", s.KeyValues)
	}

	if c.notifier != nil {
		nctx := context.WithoutCancel(ctx)
		failure := DeferredFailure{Entries: summaries, Err: err, At: c.now().UTC()}
		if nerr := c.notifier.NotifyDeferredFailure(nctx, failure); nerr != nil {
			c.logger.WarnContext(nctx, "deferred audit failure notification failed", "error", nerr)
		}
	}
	return err
}
