package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"probedeck/internal/investigation"
	"probedeck/internal/search"
)

// Sweeper prunes archived investigations past their retention age on a
// cron cadence. A redis SetNX lock keeps multiple replicas from sweeping
// the shared store at once; without redis the sweep runs unlocked.
type Sweeper struct {
	Store     *investigation.Store
	Search    *search.Index
	Rdb       *redis.Client
	SweepCron string
	MaxAge    time.Duration
	Stop      chan struct{}

	lastSweep *time.Time
	logger    *log.Logger
}

func (s *Sweeper) Start() {
	s.logger = log.New(log.Writer(), "[SWEEP] ", log.LstdFlags)
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Sweeper) tick() {
	if !isDue(s.SweepCron, s.lastSweep) {
		return
	}
	ctx := context.Background()
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "sweep:lock", "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sweep:lock")
	}
	now := time.Now()
	s.lastSweep = &now
	removed := s.Store.PruneHistory(now.Add(-s.MaxAge))
	if len(removed) == 0 {
		return
	}
	s.logger.Printf("pruned %d archived investigations", len(removed))
	if s.Search != nil {
		for _, id := range removed {
			_ = s.Search.Remove(id)
		}
	}
}

// isDue determines whether a sweep governed by cronSpec should run now,
// given the last sweep time. Supports "@daily", "@hourly", and standard
// 5-field cron expressions; invalid specs fall back to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
