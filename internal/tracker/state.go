package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/dreamware/loctrack/internal/storage"
)

// State owns the current report and the history. The two live behind
// separate guards: a reader may see a current report whose history append
// has not landed yet, or the reverse. Nothing outside this type touches
// either value.
type State struct {
	current guard[*Report]
	history guard[[]Report]

	store  storage.SnapshotStore
	logger *slog.Logger
	stats  *Stats
}

// Stats tracks operation counts. Fields are updated atomically.
type Stats struct {
	Updates         uint64 // Reports recorded
	Clears          uint64 // History clears
	PersistFailures uint64 // Snapshot saves that returned an error
	HistoryLen      int64  // History length after the last mutation
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger used for load and persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.logger = l }
}

// New builds a State and restores history from store. A missing or
// unreadable snapshot yields an empty history; the failure is logged and
// otherwise ignored.
func New(store storage.SnapshotStore, opts ...Option) *State {
	s := &State{
		store:  store,
		logger: slog.Default(),
		stats:  &Stats{},
	}
	for _, opt := range opts {
		opt(s)
	}

	restored := s.load()
	s.history.val = restored
	atomic.StoreInt64(&s.stats.HistoryLen, int64(len(restored)))
	return s
}

func (s *State) load() []Report {
	doc, err := s.store.Load()
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		s.logger.Debug("no saved history, starting empty")
		return nil
	}
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", "err", err)
		return nil
	}

	reports, err := DecodeHistory(doc)
	if err != nil {
		s.logger.Warn("history corrupt, starting empty", "err", err)
		return nil
	}
	if len(reports) > HistoryCapacity {
		reports = slices.Clone(reports[len(reports)-HistoryCapacity:])
	}
	s.logger.Info("history restored", "entries", len(reports))
	return reports
}

// Current returns the latest report. ok is false before the first update.
func (s *State) Current() (r Report, ok bool, err error) {
	err = s.current.with(func(cur **Report) {
		if *cur != nil {
			r, ok = (*cur).clone(), true
		}
	})
	return r, ok, err
}

// History returns a deep copy of the history, oldest first.
func (s *State) History() ([]Report, error) {
	var out []Report
	err := s.history.with(func(h *[]Report) {
		out = make([]Report, len(*h))
		for i, r := range *h {
			out[i] = r.clone()
		}
	})
	return out, err
}

// Record makes r the current report, appends it to the history and
// persists the history. r is copied on the way in, so the caller keeps no
// handle on stored state. Each step is attempted even if an earlier one
// failed; the returned error joins every failure.
func (s *State) Record(r Report) error {
	atomic.AddUint64(&s.stats.Updates, 1)
	r = r.clone()

	var errs []error
	if err := s.current.with(func(cur **Report) {
		stored := r.clone()
		*cur = &stored
	}); err != nil {
		errs = append(errs, fmt.Errorf("set current: %w", err))
	}

	var persistErr error
	if err := s.history.with(func(h *[]Report) {
		*h = append(*h, r)
		if over := len(*h) - HistoryCapacity; over > 0 {
			*h = slices.Delete(*h, 0, over)
		}
		persistErr = s.persistLocked(*h)
	}); err != nil {
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}
	if persistErr != nil {
		errs = append(errs, persistErr)
	}
	return errors.Join(errs...)
}

// Clear empties the history and persists the empty document. The current
// report is left as is.
func (s *State) Clear() error {
	atomic.AddUint64(&s.stats.Clears, 1)

	var persistErr error
	if err := s.history.with(func(h *[]Report) {
		*h = nil
		persistErr = s.persistLocked(*h)
	}); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return persistErr
}

// persistLocked saves the whole history. Callers hold the history guard so
// snapshots reach the store in mutation order.
func (s *State) persistLocked(h []Report) error {
	atomic.StoreInt64(&s.stats.HistoryLen, int64(len(h)))

	if err := s.store.Save(EncodeHistory(h)); err != nil {
		atomic.AddUint64(&s.stats.PersistFailures, 1)
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the operation counters.
func (s *State) Stats() Stats {
	return Stats{
		Updates:         atomic.LoadUint64(&s.stats.Updates),
		Clears:          atomic.LoadUint64(&s.stats.Clears),
		PersistFailures: atomic.LoadUint64(&s.stats.PersistFailures),
		HistoryLen:      atomic.LoadInt64(&s.stats.HistoryLen),
	}
}
