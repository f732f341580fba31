package investigation

import (
	"context"
	"log"
	"sync"
	"time"

	"probedeck/internal/kv"
	"probedeck/internal/model"
)

// Storage keys for the two persisted slots.
const (
	KeyActive  = "investigation:active"
	KeyHistory = "investigation:history"
)

// DefaultFlushDelay is the quiet period a mutation waits for before its
// state is written out. Bursts of chat merges coalesce into one write.
const DefaultFlushDelay = 100 * time.Millisecond

const persistTimeout = 5 * time.Second

// Store owns the single active investigation and the history list. All
// mutations are serialised behind one mutex, which preserves the applied-in
// -event-order guarantee under concurrent HTTP handlers. Every mutation
// schedules a trailing-debounced write of the affected slot through the
// key-value port; callers never wait on persistence.
type Store struct {
	mu         sync.Mutex
	kv         kv.Store
	flushDelay time.Duration
	logger     *log.Logger

	active  *model.Investigation
	history []model.Investigation

	activeTimer  *time.Timer
	historyTimer *time.Timer
}

// NewStore builds a store over the given key-value port. A non-positive
// flushDelay falls back to DefaultFlushDelay.
func NewStore(kvs kv.Store, flushDelay time.Duration) *Store {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Store{
		kv:         kvs,
		flushDelay: flushDelay,
		logger:     log.New(log.Writer(), "[STORE] ", log.LstdFlags),
	}
}

// Load rehydrates both slots from storage. Malformed payloads are dropped
// and counted; only transport errors are returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.kv.Get(ctx, KeyActive)
	if err != nil {
		return err
	}
	if ok {
		inv, err := model.DecodeInvestigation(raw)
		if err != nil {
			s.logger.Printf("dropping corrupt active investigation: %v", err)
			decodeFailures.Inc()
		} else {
			s.active = inv
		}
	}
	raw, ok, err = s.kv.Get(ctx, KeyHistory)
	if err != nil {
		return err
	}
	if ok {
		history, err := model.DecodeHistory(raw)
		if err != nil {
			s.logger.Printf("dropping corrupt history: %v", err)
			decodeFailures.Inc()
		} else {
			s.history = history
		}
	}
	return nil
}

// SetActive replaces the active slot unconditionally. A previous active
// investigation is discarded, not archived; starting over implies
// abandoning the old session.
func (s *Store) SetActive(inv *model.Investigation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = inv
	s.scheduleActive()
}

// ClearActive empties the active slot, resetting progress.
func (s *Store) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.scheduleActive()
}

// SetStep moves the progress cursor on the active investigation. Negative
// steps clamp to zero; no-op without an active investigation.
func (s *Store) SetStep(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	if step < 0 {
		step = 0
	}
	s.active.CurrentStep = step
	s.scheduleActive()
}

// AppendRecords appends opaque findings and recommendations to the active
// investigation.
func (s *Store) AppendRecords(findings, recommendations []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || (len(findings) == 0 && len(recommendations) == 0) {
		return
	}
	s.active.Findings = append(s.active.Findings, findings...)
	s.active.Recommendations = append(s.active.Recommendations, recommendations...)
	s.scheduleActive()
}

// Archive moves the active investigation into history, stamping the end
// time and archived status. Returns a copy of the archived investigation,
// or nil when there was nothing to archive.
func (s *Store) Archive() *model.Investigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	now := time.Now().UTC()
	s.active.Status = model.StatusArchived
	s.active.EndTime = &now
	s.history = append(s.history, *s.active)
	archived := s.active.Clone()
	s.active = nil
	s.scheduleActive()
	s.scheduleHistory()
	return archived
}

// AppendHistory adds an investigation directly to history.
func (s *Store) AppendHistory(inv model.Investigation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, inv)
	s.scheduleHistory()
}

// RemoveFromHistory deletes by id; absent ids are a silent no-op.
func (s *Store) RemoveFromHistory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			s.scheduleHistory()
			return
		}
	}
}

// PruneHistory drops archived investigations older than cutoff (by end
// time) and returns the removed ids.
func (s *Store) PruneHistory(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.Investigation
	var removed []string
	for _, inv := range s.history {
		if inv.EndTime != nil && inv.EndTime.Before(cutoff) {
			removed = append(removed, inv.ID)
			continue
		}
		kept = append(kept, inv)
	}
	if len(removed) > 0 {
		s.history = kept
		s.scheduleHistory()
	}
	return removed
}

// Active returns a deep-copy snapshot of the active investigation, or nil.
func (s *Store) Active() *model.Investigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

// History returns a deep-copy snapshot of the history list. Ordering is
// insertion order; callers sort as needed.
func (s *Store) History() []model.Investigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Investigation, 0, len(s.history))
	for i := range s.history {
		out = append(out, *s.history[i].Clone())
	}
	return out
}

// Flush cancels pending debounce timers and writes both slots now. Used on
// shutdown so the debounce window cannot lose the final mutation.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.activeTimer != nil {
		s.activeTimer.Stop()
		s.activeTimer = nil
	}
	if s.historyTimer != nil {
		s.historyTimer.Stop()
		s.historyTimer = nil
	}
	s.mu.Unlock()
	s.persistActive(ctx)
	s.persistHistory(ctx)
}

// scheduleActive (re)arms the trailing-debounce timer for the active slot.
// Caller holds s.mu.
func (s *Store) scheduleActive() {
	if s.activeTimer != nil {
		s.activeTimer.Stop()
	}
	s.activeTimer = time.AfterFunc(s.flushDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		s.persistActive(ctx)
	})
}

// scheduleHistory mirrors scheduleActive for the history slot. Caller
// holds s.mu.
func (s *Store) scheduleHistory() {
	if s.historyTimer != nil {
		s.historyTimer.Stop()
	}
	s.historyTimer = time.AfterFunc(s.flushDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		s.persistHistory(ctx)
	})
}

func (s *Store) persistActive(ctx context.Context) {
	s.mu.Lock()
	active := s.active.Clone()
	s.mu.Unlock()
	if active == nil {
		if err := s.kv.Delete(ctx, KeyActive); err != nil {
			s.logger.Printf("delete active: %v", err)
			return
		}
		persistWrites.WithLabelValues("active").Inc()
		return
	}
	raw, err := model.EncodeInvestigation(active)
	if err != nil {
		s.logger.Printf("encode active: %v", err)
		return
	}
	if err := s.kv.Set(ctx, KeyActive, raw); err != nil {
		s.logger.Printf("persist active: %v", err)
		return
	}
	persistWrites.WithLabelValues("active").Inc()
}

func (s *Store) persistHistory(ctx context.Context) {
	s.mu.Lock()
	history := make([]model.Investigation, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()
	raw, err := model.EncodeHistory(history)
	if err != nil {
		s.logger.Printf("encode history: %v", err)
		return
	}
	if err := s.kv.Set(ctx, KeyHistory, raw); err != nil {
		s.logger.Printf("persist history: %v", err)
		return
	}
	persistWrites.WithLabelValues("history").Inc()
}
