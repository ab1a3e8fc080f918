package production

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// Store opens the transactions the ledger runs in.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work. Nothing written through it is visible to others until Commit.
type Tx interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
	MaterialStock(ctx context.Context, materialID int64) (decimal.Decimal, error)
	// AdjustMaterialStock adds delta to a material's stock and fails if the result would be negative.
	AdjustMaterialStock(ctx context.Context, materialID int64, delta decimal.Decimal) error
	AdjustProductStock(ctx context.Context, productID int64, delta int64) error
	InsertRun(ctx context.Context, run *Run) error
	Run(ctx context.Context, id int64) (Run, error)
	UpdateRunStatus(ctx context.Context, id int64, status Status, at time.Time) error
	Commit() error
	Rollback() error
}

// Recorder receives ledger outcomes, typically for metrics.
type Recorder interface {
	RunCreated(productID int64, batch int64)
	RunRejected(reason string)
	RunTransitioned(to Status)
}

type nopRecorder struct{}

func (nopRecorder) RunCreated(int64, int64) {}
func (nopRecorder) RunRejected(string)      {}
func (nopRecorder) RunTransitioned(Status)  {}

// Ledger creates production runs and moves them through pending -> completed | cancelled,
// keeping material and product stock consistent with every committed transition.
type Ledger struct {
	store Store
	log   *slog.Logger
	rec   Recorder
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithRecorder(r Recorder) Option { return func(l *Ledger) { l.rec = r } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func NewLedger(store Store, log *slog.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	l := &Ledger{store: store, log: log, rec: nopRecorder{}, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateInput is a validated request for a new run.
type CreateInput struct {
	ProductID int64
	Batch     int64
	Notes     string
}

// Create reserves the materials for a batch and records the run as pending. Either every material is
// deducted and the run is stored, or nothing changes.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (Run, error) {
	if in.Batch <= 0 {
		return Run{}, fmt.Errorf("%w, got %d", ErrInvalidBatch, in.Batch)
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("begin production transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	product, err := tx.Product(ctx, in.ProductID)
	if err != nil {
		return Run{}, fmt.Errorf("load product %d: %w", in.ProductID, err)
	}
	if len(product.Composition) == 0 {
		l.rec.RunRejected("no_composition")
		return Run{}, fmt.Errorf("product %d: %w", product.ID, ErrNoComposition)
	}

	reqs := Requirements(product.Composition, in.Batch)
	shortages, err := CheckAvailability(reqs, func(id int64) (decimal.Decimal, error) {
		return tx.MaterialStock(ctx, id)
	})
	if err != nil {
		return Run{}, fmt.Errorf("read material stock: %w", err)
	}
	if len(shortages) > 0 {
		l.rec.RunRejected("insufficient_stock")
		l.log.InfoContext(ctx, "production run rejected",
			"product_id", product.ID, "batch", in.Batch, "shortages", len(shortages))
		return Run{}, &InsufficientStockError{Shortages: shortages}
	}

	for _, r := range reqs {
		if err := tx.AdjustMaterialStock(ctx, r.MaterialID, r.Quantity.Neg()); err != nil {
			return Run{}, fmt.Errorf("deduct material %d: %w", r.MaterialID, err)
		}
	}

	now := l.now()
	run := Run{
		ProductID:   product.ID,
		Batch:       in.Batch,
		Status:      StatusPending,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
		Consumption: reqs,
	}
	if err := tx.InsertRun(ctx, &run); err != nil {
		return Run{}, fmt.Errorf("insert production run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit production run: %w", err)
	}

	l.rec.RunCreated(product.ID, in.Batch)
	l.log.InfoContext(ctx, "production run created", "run_id", run.ID, "product_id", product.ID, "batch", in.Batch)
	return run, nil
}

// Complete moves a pending run to completed and adds the batch to the product's finished stock.
func (l *Ledger) Complete(ctx context.Context, id int64) (Run, error) {
	return l.transition(ctx, id, StatusCompleted)
}

// Cancel moves a pending run to cancelled and returns its consumed materials to stock.
func (l *Ledger) Cancel(ctx context.Context, id int64) (Run, error) {
	return l.transition(ctx, id, StatusCancelled)
}

// Transition applies a status given as text, as received from callers. Only completed and
// cancelled are accepted as targets; anything else is rejected before the run is read.
func (l *Ledger) Transition(ctx context.Context, id int64, status string) (Run, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Run{}, err
	}
	if st != StatusCompleted && st != StatusCancelled {
		return Run{}, fmt.Errorf("%w: %q is not a target status", ErrInvalidStatus, status)
	}
	return l.transition(ctx, id, st)
}

func (l *Ledger) transition(ctx context.Context, id int64, to Status) (Run, error) {
	tx, err := l.store.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("begin production transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run, err := tx.Run(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("load production run %d: %w", id, err)
	}
	if run.Status != StatusPending {
		return Run{}, fmt.Errorf("%w: run %d is %s", ErrInvalidTransition, id, run.Status)
	}

	switch to {
	case StatusCompleted:
		if err := tx.AdjustProductStock(ctx, run.ProductID, run.Batch); err != nil {
			return Run{}, fmt.Errorf("add finished stock for product %d: %w", run.ProductID, err)
		}
	case StatusCancelled:
		for _, c := range run.Consumption {
			if err := tx.AdjustMaterialStock(ctx, c.MaterialID, c.Quantity); err != nil {
				return Run{}, fmt.Errorf("restore material %d: %w", c.MaterialID, err)
			}
		}
	default:
		return Run{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	now := l.now()
	if err := tx.UpdateRunStatus(ctx, id, to, now); err != nil {
		return Run{}, fmt.Errorf("update production run %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit production run %d: %w", id, err)
	}

	run.Status = to
	run.UpdatedAt = now
	l.rec.RunTransitioned(to)
	l.log.InfoContext(ctx, "production run updated", "run_id", id, "status", string(to))
	return run, nil
}
