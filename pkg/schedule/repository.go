package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// Get returns the user's schedule, empty when nothing is stored. Inside a transaction an empty
	// row is created if needed and stays locked until commit.
	Get(ctx context.Context, userId int64) (UserSchedule, error)
	SaveWeek(ctx context.Context, userId int64, parity week_parity.Parity, week Week, updatedAt time.Time) error
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Get(ctx context.Context, userId int64) (UserSchedule, error) {
	query := `SELECT odd_week_schedule, even_week_schedule FROM user_schedules WHERE user_id = $1`
	if r.tx != nil {
		// FOR UPDATE locks nothing when the row is missing, so concurrent first writes need a row.
		_, err := r.tx.Exec(ctx, `INSERT INTO user_schedules (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userId)
		if err != nil {
			return UserSchedule{}, fmt.Errorf("could not create schedule row of user %d: %w", userId, err)
		}
		query += " FOR UPDATE"
	}

	var odd, even []byte
	err := r.getQueryer().QueryRow(ctx, query, userId).Scan(&odd, &even)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserSchedule{Odd: Week{}, Even: Week{}}, nil
	}
	if err != nil {
		return UserSchedule{}, fmt.Errorf("could not query schedule of user %d: %w", userId, err)
	}
	return UserSchedule{Odd: decodeWeek(odd), Even: decodeWeek(even)}, nil
}

func (r *repositoryImpl) SaveWeek(ctx context.Context, userId int64, parity week_parity.Parity, week Week, updatedAt time.Time) error {
	raw, err := encodeWeek(week)
	if err != nil {
		return fmt.Errorf("could not encode week: %w", err)
	}

	column := "odd_week_schedule"
	if parity == week_parity.Even {
		column = "even_week_schedule"
	}
	query := fmt.Sprintf(`INSERT INTO user_schedules (user_id, %[1]s, updated_at) VALUES ($1, $2, $3)
			  ON CONFLICT (user_id) DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = EXCLUDED.updated_at`, column)

	if _, err := r.getQueryer().Exec(ctx, query, userId, string(raw), updatedAt); err != nil {
		return fmt.Errorf("could not save %s week of user %d: %w", parity, userId, err)
	}
	return nil
}
