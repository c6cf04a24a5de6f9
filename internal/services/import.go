package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"

	"go.uber.org/zap"
)

var ErrImportRunning = errors.New("an import is already running")

type ImportOptions struct {
	// Clear the current stops before appending the imported ones. Ignored
	// when a cancelled import produced nothing.
	Replace bool
}

// ImportStatus is the progress of the current or last bulk import.
type ImportStatus struct {
	Running    bool                `json:"running"`
	Done       int                 `json:"done"`
	Report     domain.ImportReport `json:"report"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at,omitzero"`
	FinishedAt time.Time           `json:"finished_at,omitzero"`
}

type importTracker struct {
	mu     sync.Mutex
	status ImportStatus
	cancel context.CancelFunc
}

func (t *importTracker) begin(cancel context.CancelFunc, total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Running {
		return ErrImportRunning
	}
	t.cancel = cancel
	t.status = ImportStatus{
		Running:   true,
		Report:    domain.ImportReport{Total: total},
		StartedAt: time.Now().UTC(),
	}
	return nil
}

func (t *importTracker) progress(done int, rep domain.ImportReport) {
	t.mu.Lock()
	t.status.Done = done
	t.status.Report = rep
	t.mu.Unlock()
}

func (t *importTracker) finish(rep domain.ImportReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Running = false
	t.status.Report = rep
	t.status.FinishedAt = time.Now().UTC()
	if err != nil {
		t.status.Error = err.Error()
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// ImportStatus reports progress of the running import, or the result of the
// last one.
func (p *Planner) ImportStatus() ImportStatus {
	p.imp.mu.Lock()
	defer p.imp.mu.Unlock()
	return p.imp.status
}

// CancelImport asks the running import to stop after the current row. It
// reports whether an import was running.
func (p *Planner) CancelImport() bool {
	p.imp.mu.Lock()
	defer p.imp.mu.Unlock()

	if !p.imp.status.Running || p.imp.cancel == nil {
		return false
	}
	p.imp.cancel()
	return true
}

// StartImport runs Import in the background. The import outlives the
// caller's context; use CancelImport to stop it.
func (p *Planner) StartImport(ctx context.Context, rows []domain.ImportRow, opts ImportOptions) error {
	ictx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := p.imp.begin(cancel, len(rows)); err != nil {
		cancel()
		return err
	}

	go func() {
		_, _ = p.runImport(ictx, rows, opts)
	}()
	return nil
}

// Import geocodes rows one at a time and appends the successes.
//
// Rows missing a field are skipped. Rows that cannot be located are counted
// as failed and dropped. Geocoding calls are spaced by ImportDelay. The
// located stops are separated when they share coordinates, ordered by nearest
// neighbor from the starting point and appended in that order.
//
// Cancelling ctx or calling CancelImport stops geocoding between rows; the
// rows located so far are still appended and the report is marked cancelled.
func (p *Planner) Import(ctx context.Context, rows []domain.ImportRow, opts ImportOptions) (domain.ImportReport, error) {
	ictx, cancel := context.WithCancel(ctx)
	if err := p.imp.begin(cancel, len(rows)); err != nil {
		cancel()
		return domain.ImportReport{}, err
	}
	return p.runImport(ictx, rows, opts)
}

func (p *Planner) runImport(ctx context.Context, rows []domain.ImportRow, opts ImportOptions) (rep domain.ImportReport, err error) {
	// finish must run last: callers polling ImportStatus treat !Running as done.
	defer func() { p.imp.finish(rep, err) }()
	defer obs.Time(ctx, p.log, "planner.import")(&err)

	rep.Total = len(rows)
	located := make([]domain.Stop, 0, len(rows))
	lookups := 0

	for i, row := range rows {
		row = row.Normalize()
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}

		if !row.Complete() {
			rep.Skipped++
			p.imp.progress(i+1, rep)
			continue
		}

		if lookups > 0 && p.opts.ImportDelay > 0 {
			if err := sleep(ctx, p.opts.ImportDelay); err != nil {
				rep.Cancelled = true
				break
			}
		}
		lookups++

		coords, src, rerr := p.resolver.Resolve(ctx, row.Town, row.Address, nil)
		if rerr != nil {
			if ctx.Err() != nil {
				rep.Cancelled = true
				break
			}
			coords = nil
		}

		rep.Processed++
		if coords == nil {
			rep.Failed++
			p.log.Info("import row not located",
				zap.Int("row", i+1),
				zap.String("town", row.Town),
				zap.String("address", row.Address),
			)
		} else {
			p.log.Debug("import row located", zap.Int("row", i+1), zap.String("source", string(src)))
			located = append(located, domain.Stop{
				Buyer:       row.Buyer,
				Town:        row.Town,
				Address:     row.Address,
				Coordinates: coords,
			})
		}
		p.imp.progress(i+1, rep)
	}

	located = DedupeCoordinates(located, p.opts.Rand)

	p.mu.Lock()
	located = p.order(located)
	if opts.Replace && (!rep.Cancelled || len(located) > 0) {
		p.store.Clear()
	}
	for _, st := range located {
		if _, aerr := p.store.Add(st); aerr != nil {
			rep.Failed++
			p.log.Warn("import row rejected", zap.String("buyer", st.Buyer), zap.Error(aerr))
			continue
		}
		rep.Imported++
	}
	n := p.store.Len()
	p.mu.Unlock()

	if rep.Imported > 0 || opts.Replace {
		// The import's own context may already be cancelled.
		p.publish(context.WithoutCancel(ctx), EventStopsImported, "", n)
	}
	return rep, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
