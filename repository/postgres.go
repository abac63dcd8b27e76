package repository

import (
	"context"
	"errors"
	"time"

	"github.com/attendly/timeclock/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresStore is the GORM-backed implementation of Store.
type PostgresStore struct {
	db     *gorm.DB
	logger cmtlog.Logger
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(logger cmtlog.Logger) *PostgresStore {
	return &PostgresStore{logger: logger}
}

// ConnectDB opens the Postgres connection, retrying while the database
// container comes up.
func (r *PostgresStore) ConnectDB(dsn string) error {
	var lastErr error
	for i := range 10 {
		db, err := gorm.Open(postgres.Open(dsn))
		if err == nil {
			r.db = db
			r.logger.Info("Connected to Postgres")
			return nil
		}
		lastErr = err
		r.logger.Info("Connection attempt failed", "attempt", i+1, "err", err)
		time.Sleep(2 * time.Second)
	}
	return lastErr
}

func (r *PostgresStore) Migrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.WorkSession{},
		&models.TimeEntry{},
	)
}

// Seed inserts a small employee directory so the service is usable out of the
// box. Skipped when users already exist.
func (r *PostgresStore) Seed() {
	var userCount int64
	r.db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		r.logger.Info("Seed data already exists, skipping")
		return
	}

	users := []models.User{
		{ID: "EMP-001", Name: "Elena Costa", Role: "Operations Manager", IsActive: true},
		{ID: "EMP-002", Name: "Tomás Rivera", Role: "Support Engineer", IsActive: true},
		{ID: "EMP-003", Name: "Priya Nair", Role: "Logistics Coordinator", IsActive: true},
		{ID: "EMP-004", Name: "Ken Adeyemi", Role: "Inventory Clerk", IsActive: true},
		{ID: "EMP-005", Name: "Hana Suzuki", Role: "Dispatcher", IsActive: true},
	}
	for _, user := range users {
		if err := r.db.Create(&user).Error; err != nil {
			r.logger.Error("Error seeding user", "id", user.ID, "err", err)
		}
	}
	r.logger.Info("Database seeding completed")
}

// wrapDBError maps a gorm/pgx error to a RepositoryError. Unique violations
// mean a concurrent writer won the (user_id, work_date) key and map to
// CONFLICT so callers can retry.
func wrapDBError(err error) *RepositoryError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &RepositoryError{
			Code:    ErrCodeCanceled,
			Message: "Request canceled before the write completed",
			Detail:  err.Error(),
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrUniqueViolation, PgErrSerializationFail, PgErrTransactionRollback:
			return &RepositoryError{
				Code:    ErrCodeConflict,
				Message: "Concurrent write detected",
				Detail:  pgErr.Detail,
			}
		default:
			return &RepositoryError{
				Code:    pgErr.Code,
				Message: pgErr.Message,
				Detail:  pgErr.Detail,
			}
		}
	}
	return &RepositoryError{
		Code:    ErrCodeDatabase,
		Message: "Database error occurred",
		Detail:  err.Error(),
	}
}

func (r *PostgresStore) FindUser(ctx context.Context, userID string) (*models.User, *RepositoryError) {
	var user models.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RepositoryError{
				Code:    ErrCodeNotFound,
				Message: "User does not exist",
				Detail:  "no user with id " + userID,
			}
		}
		return nil, wrapDBError(err)
	}
	return &user, nil
}

func (r *PostgresStore) FindSessionByUserAndDate(ctx context.Context, userID, date string) (*models.WorkSession, *RepositoryError) {
	var session models.WorkSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date = ?", userID, date).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return &session, nil
}

func (r *PostgresStore) FindActiveSessionForUser(ctx context.Context, userID string) (*models.WorkSession, *RepositoryError) {
	var session models.WorkSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.SessionCompleted).
		Order("work_date DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}
	return &session, nil
}

func (r *PostgresStore) CreateSession(ctx context.Context, session *models.WorkSession) *RepositoryError {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *PostgresStore) UpdateSession(ctx context.Context, session *models.WorkSession) *RepositoryError {
	dbTx := r.db.WithContext(ctx).Begin()
	if repoErr := r.updateSessionTx(dbTx, session); repoErr != nil {
		dbTx.Rollback()
		return repoErr
	}
	if err := dbTx.Commit().Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *PostgresStore) CreateEntry(ctx context.Context, entry *models.TimeEntry) *RepositoryError {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// RecordTransition writes the session and the audit entry inside one database
// transaction. The unique (user_id, work_date) index guards concurrent
// clock-ins; the version guard catches writers acting on a stale read.
func (r *PostgresStore) RecordTransition(ctx context.Context, session *models.WorkSession, entry *models.TimeEntry, newSession bool) *RepositoryError {
	dbTx := r.db.WithContext(ctx).Begin()
	if dbTx.Error != nil {
		return wrapDBError(dbTx.Error)
	}

	if newSession {
		if err := dbTx.Create(session).Error; err != nil {
			dbTx.Rollback()
			return wrapDBError(err)
		}
	} else {
		if repoErr := r.updateSessionTx(dbTx, session); repoErr != nil {
			dbTx.Rollback()
			return repoErr
		}
	}

	if err := dbTx.Create(entry).Error; err != nil {
		dbTx.Rollback()
		return wrapDBError(err)
	}

	if err := dbTx.Commit().Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// updateSessionTx applies the optimistic-versioned update within dbTx. The
// caller owns rollback/commit.
func (r *PostgresStore) updateSessionTx(dbTx *gorm.DB, session *models.WorkSession) *RepositoryError {
	prev := session.Version
	session.Version = prev + 1

	res := dbTx.Model(&models.WorkSession{}).
		Where("session_id = ? AND version = ?", session.ID, prev).
		Updates(map[string]interface{}{
			"status":              session.Status,
			"clock_in_time":       session.ClockInTime,
			"clock_out_time":      session.ClockOutTime,
			"lunch_start_time":    session.LunchStartTime,
			"lunch_end_time":      session.LunchEndTime,
			"total_work_minutes":  session.TotalWorkMinutes,
			"total_lunch_minutes": session.TotalLunchMinutes,
			"version":             session.Version,
		})
	if res.Error != nil {
		session.Version = prev
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		session.Version = prev
		return &RepositoryError{
			Code:    ErrCodeConflict,
			Message: "Session was modified concurrently",
			Detail:  "optimistic version check failed for session " + session.ID,
		}
	}
	return nil
}

func (r *PostgresStore) ListEntries(ctx context.Context, userID string, rng DateRange) ([]models.TimeEntry, *RepositoryError) {
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date >= ? AND work_date <= ?", userID, rng.Start, rng.End).
		Order("timestamp ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return entries, nil
}

func (r *PostgresStore) ListCompletedSessions(ctx context.Context, userID string, rng DateRange) ([]models.WorkSession, *RepositoryError) {
	var sessions []models.WorkSession
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("user_id = ? AND status = ? AND work_date >= ? AND work_date <= ?",
			userID, models.SessionCompleted, rng.Start, rng.End).
		Order("work_date ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return sessions, nil
}
