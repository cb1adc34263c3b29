package lockers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"smartlocker-web/internal/metrics"
	"smartlocker-web/internal/models"
)

// DefaultPollInterval is how often an active directory view refreshes.
const DefaultPollInterval = 10 * time.Second

// Snapshot is what a directory view shows. A failed refresh keeps the last
// good Lockers and sets Err.
type Snapshot struct {
	Lockers   []models.Locker
	Err       error
	FetchedAt time.Time
	Loaded    bool
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Lockers = append([]models.Locker(nil), s.Lockers...)
	return out
}

// Watch keeps a directory snapshot fresh by polling at a fixed interval
// until Stop. Push-based invalidation can replace the ticker without
// changing callers.
type Watch struct {
	dir      *Directory
	interval time.Duration
	onUpdate func(Snapshot)
	logger   *zap.Logger

	mu   sync.Mutex
	snap Snapshot
	// seq numbers fetches in start order; applied is the newest one
	// published. Results older than applied are dropped.
	seq     atomic.Uint64
	applied uint64

	emitMu  sync.Mutex
	stopped atomic.Bool

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Watch fetches once immediately and then every interval. onUpdate, if set,
// receives every new snapshot from a single goroutine at a time; it must not
// call Stop.
func (d *Directory) Watch(interval time.Duration, onUpdate func(Snapshot)) *Watch {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{
		dir:      d,
		interval: interval,
		onUpdate: onUpdate,
		logger:   d.logger,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	metrics.ActiveWatches.Inc()
	go w.loop(ctx)
	return w
}

func (w *Watch) loop(ctx context.Context) {
	defer close(w.done)
	defer metrics.ActiveWatches.Dec()

	_ = w.Refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Refresh(ctx)
		}
	}
}

// Refresh fetches the directory now and publishes the result, unless a
// fetch started later has already been published.
func (w *Watch) Refresh(ctx context.Context) error {
	seq := w.seq.Add(1)
	lockers, err := w.dir.FetchAll(ctx)
	if w.stopped.Load() {
		return err
	}
	metrics.RecordPoll(err)

	w.mu.Lock()
	if seq < w.applied {
		w.mu.Unlock()
		w.logger.Debug("dropping superseded locker refresh", zap.Uint64("seq", seq))
		return err
	}
	w.applied = seq
	if err != nil {
		w.snap.Err = err
		w.logger.Warn("locker refresh failed", zap.Error(err))
	} else {
		w.snap = Snapshot{Lockers: lockers, FetchedAt: time.Now(), Loaded: true}
	}
	snap := w.snap.clone()
	w.mu.Unlock()

	w.emit(snap)
	return err
}

// Reserve submits the reservation and, on success, refreshes the snapshot.
// The cached status is never patched locally. A failed follow-up refresh
// is reported through the snapshot, not as a reservation failure.
func (w *Watch) Reserve(ctx context.Context, lockerID, hours int) error {
	if err := w.dir.Reserve(ctx, lockerID, hours); err != nil {
		return err
	}
	_ = w.Refresh(ctx)
	return nil
}

func (w *Watch) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.clone()
}

// Stop cancels the poll and waits for it to exit. No update is delivered
// after Stop returns. Stop is idempotent.
func (w *Watch) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		w.emitMu.Lock()
		w.emitMu.Unlock()
		w.cancel()
		<-w.done
	})
}

// Done is closed once the poll goroutine has exited.
func (w *Watch) Done() <-chan struct{} { return w.done }

func (w *Watch) emit(s Snapshot) {
	if w.onUpdate == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if w.stopped.Load() {
		return
	}
	w.onUpdate(s)
}
