package maintenance

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/pkg/logger"
)

const defaultSweepSpec = "@hourly"

// Occupancy reports realtime room usage for the periodic occupancy log.
type Occupancy interface {
	Snapshot() map[string]int
	Connections() int
}

// Sweeper runs background housekeeping: collecting permission rows that lost
// their note or user, and logging realtime occupancy. Historical data can
// contain orphaned rows from deletes that predate the transactional delete
// path, so the sweep stays on even though new orphans should not appear.
type Sweeper struct {
	db        *gorm.DB
	occupancy Occupancy
	cron      *cron.Cron
	log       *zap.Logger

	schedule string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithOccupancy attaches a realtime occupancy source to the periodic log.
func WithOccupancy(occ Occupancy) Option {
	return func(s *Sweeper) {
		s.occupancy = occ
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(db *gorm.DB, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		db:       db,
		schedule: defaultSweepSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes the housekeeping routines sequentially. Primarily used in
// tests and during graceful shutdown.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if s.db != nil {
		stats, err := CleanupOrphanedPermissions(ctx, s.db)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if total := stats.MissingNotes + stats.MissingUsers; total > 0 {
			s.log.Info("collected orphaned permission rows",
				zap.Int64("missing_notes", stats.MissingNotes),
				zap.Int64("missing_users", stats.MissingUsers),
			)
		}
	}

	if s.occupancy != nil {
		s.log.Info("realtime occupancy",
			zap.Int("connections", s.occupancy.Connections()),
			zap.Int("rooms", len(s.occupancy.Snapshot())),
		)
	}

	return errs
}

// SweepStats captures the number of permission rows removed per orphan kind.
type SweepStats struct {
	MissingNotes int64
	MissingUsers int64
}

// CleanupOrphanedPermissions removes permission rows whose note or user no
// longer exists.
func CleanupOrphanedPermissions(ctx context.Context, db *gorm.DB) (SweepStats, error) {
	if db == nil {
		return SweepStats{}, errors.New("sweep permissions: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := SweepStats{}

	result := db.WithContext(ctx).
		Exec("DELETE FROM permissions WHERE note_id NOT IN (SELECT id FROM notes)")
	if result.Error != nil {
		return stats, result.Error
	}
	stats.MissingNotes = result.RowsAffected

	result = db.WithContext(ctx).
		Exec("DELETE FROM permissions WHERE user_id NOT IN (SELECT id FROM users)")
	if result.Error != nil {
		return stats, result.Error
	}
	stats.MissingUsers = result.RowsAffected

	return stats, nil
}
