package health

import (
	"context"
	"time"

	"github.com/oggyb/campus-match/internal/app"
)

const (
	statusUp   = "up"
	statusDown = "down"
)

// Report is the body of GET /health.
type Report struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Redis    string    `json:"redis"`
	Time     time.Time `json:"time"`
}

// Healthy reports whether every dependency answered.
func (r Report) Healthy() bool { return r.Status == statusUp }

type Service struct {
	appCtx  *app.AppContext
	timeout time.Duration
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, timeout: 2 * time.Second}
}

// Check pings the database and Redis, each bounded by a short timeout.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rep := Report{Status: statusUp, Database: statusUp, Redis: statusUp, Time: time.Now().UTC()}

	if err := s.pingDB(ctx); err != nil {
		s.appCtx.Logger.Warn("health: database ping failed", "err", err)
		rep.Database = statusDown
		rep.Status = statusDown
	}
	if err := s.appCtx.RedisCache.Ping(ctx); err != nil {
		s.appCtx.Logger.Warn("health: redis ping failed", "err", err)
		rep.Redis = statusDown
		rep.Status = statusDown
	}
	return rep
}

func (s *Service) pingDB(ctx context.Context) error {
	sqlDB, err := s.appCtx.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
