package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/shared/cache"
)

// Service encapsulates health-related checks.
type Service struct {
	DB    *sql.DB
	Cache cache.Cache
}

// NewService constructs a new health service.
func NewService(db *sql.DB, c cache.Cache) *Service {
	return &Service{DB: db, Cache: c}
}

// Status returns a simple liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Readiness reports per-dependency health. Absent dependencies (memory repo,
// disabled cache) are reported as ok since the service works without them.
func (s *Service) Readiness(ctx context.Context) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out := map[string]bool{"ok": true, "database": true, "cache": true}
	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			out["database"] = false
			out["ok"] = false
		}
	}
	if _, disabled := s.Cache.(cache.Noop); s.Cache != nil && !disabled {
		// A round trip through the cache exercises the backend connection.
		// Cache loss degrades performance, not correctness, so it never
		// flips the overall flag.
		key := "health:ping"
		if s.Cache.Set(ctx, key, "1", time.Minute) {
			s.Cache.Invalidate(ctx, key)
		} else {
			out["cache"] = false
		}
	}
	return out
}
