package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studioroll/attendance-hub/internal/application/query"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/pkg/isoweek"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// summaryKeyPrefix namespaces weekly summary keys.
const summaryKeyPrefix = "summary:week:"

// DefaultSummaryTTL bounds staleness when an invalidation is lost.
const DefaultSummaryTTL = 10 * time.Minute

// SummaryCache implements query.SummaryCache over Redis, invalidated by
// the domain events that change weekly counts.
type SummaryCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewSummaryCache creates a SummaryCache. A non-positive ttl falls back
// to DefaultSummaryTTL.
func NewSummaryCache(cache *Cache, ttl time.Duration, log *logger.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	if log == nil {
		log = logger.Default()
	}
	return &SummaryCache{cache: cache, ttl: ttl, logger: log}
}

// Get implements query.SummaryCache. Transport errors degrade to a miss.
func (s *SummaryCache) Get(ctx context.Context, weekID string) (*query.WeeklySummaryResult, bool) {
	var result query.WeeklySummaryResult
	err := s.cache.Get(ctx, summaryKeyPrefix+weekID, &result)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("summary cache read failed",
				logger.WeekID(weekID),
				logger.Err(err),
			)
		}
		return nil, false
	}
	return &result, true
}

// Set implements query.SummaryCache. Best effort; a failed write only
// costs the next read a recompute.
func (s *SummaryCache) Set(ctx context.Context, weekID string, summary *query.WeeklySummaryResult) {
	if err := s.cache.Set(ctx, summaryKeyPrefix+weekID, summary, s.ttl); err != nil {
		s.logger.Warn("summary cache write failed",
			logger.WeekID(weekID),
			logger.Err(err),
		)
	}
}

// InvalidateWeek drops the cached summary for the week containing date.
func (s *SummaryCache) InvalidateWeek(ctx context.Context, date string) {
	weekID := isoweek.OfDate(date)
	if weekID == "" {
		return
	}
	if err := s.cache.Delete(ctx, summaryKeyPrefix+weekID); err != nil {
		s.logger.Warn("summary cache invalidation failed",
			logger.WeekID(weekID),
			logger.Err(err),
		)
	}
}

// InvalidateAll drops every cached summary.
func (s *SummaryCache) InvalidateAll(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, summaryKeyPrefix+"*"); err != nil {
		s.logger.Warn("summary cache flush failed", logger.Err(err))
	}
}

// SubscribeInvalidation wires the cache to the event bus: marks and
// unmarks invalidate their week, a student removal flushes everything
// its purge touched.
func (s *SummaryCache) SubscribeInvalidation(bus shared.EventSubscriber) error {
	ctx := context.Background()

	if err := bus.Subscribe(shared.EventAttendanceMarked, func(e shared.Event) error {
		if ev, ok := e.(shared.AttendanceMarkedEvent); ok {
			s.InvalidateWeek(ctx, ev.Date)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(shared.EventAttendanceUnmarked, func(e shared.Event) error {
		if ev, ok := e.(shared.AttendanceUnmarkedEvent); ok {
			s.InvalidateWeek(ctx, ev.Date)
		}
		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(shared.EventStudentRemoved, func(e shared.Event) error {
		ev, ok := e.(shared.StudentRemovedEvent)
		if !ok {
			return nil
		}
		if len(ev.AffectedDates) == 0 {
			return nil
		}
		for _, date := range ev.AffectedDates {
			s.InvalidateWeek(ctx, date)
		}
		return nil
	})
}
