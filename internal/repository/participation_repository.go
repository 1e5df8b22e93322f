package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deptevents/event-registration/internal/domain"
)

// JoinCheck decides, while the event row is locked, whether one more
// participation may be added. count is the number of existing rows.
type JoinCheck func(event *domain.Event, count int) error

// ParticipationRepository manages the user/event join rows.
type ParticipationRepository interface {
	Join(ctx context.Context, participation *domain.Participation, check JoinCheck) error
	Get(ctx context.Context, eventID, userID int64) (*domain.Participation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Participation, error)
	UpdateStatus(ctx context.Context, eventID, userID int64, status domain.AttendanceStatus) error
	Delete(ctx context.Context, eventID, userID int64) error
}

type participationRepository struct {
	pool *pgxpool.Pool
}

// NewParticipationRepository constructs repository.
func NewParticipationRepository(pool *pgxpool.Pool) ParticipationRepository {
	return &participationRepository{pool: pool}
}

// Join inserts the participation inside a transaction that holds the event
// row lock, so concurrent joins against the same event are serialized and the
// capacity check always sees the committed count.
func (r *participationRepository) Join(ctx context.Context, participation *domain.Participation, check JoinCheck) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin join: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	event, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1 FOR UPDATE`, participation.EventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	var joined bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_events WHERE event_id=$1 AND user_id=$2)`,
		event.ID, participation.UserID,
	).Scan(&joined); err != nil {
		return fmt.Errorf("check participation: %w", err)
	}
	if joined {
		return domain.ErrAlreadyJoined
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM user_events WHERE event_id=$1`, event.ID).Scan(&count); err != nil {
		return fmt.Errorf("count participants: %w", err)
	}

	if check != nil {
		if err := check(event, count); err != nil {
			return err
		}
	}

	const insert = `
        INSERT INTO user_events (event_id, user_id, role, status)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		participation.EventID,
		participation.UserID,
		participation.Role,
		participation.Status,
	).Scan(&participation.CreatedAt, &participation.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("insert participation: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *participationRepository) Get(ctx context.Context, eventID, userID int64) (*domain.Participation, error) {
	const query = `
        SELECT ue.event_id, ue.user_id, ue.role, ue.status, ue.created_at, ue.updated_at, u.id, COALESCE(u.full_name, '')
        FROM user_events ue
        JOIN users u ON u.id = ue.user_id
        WHERE ue.event_id=$1 AND ue.user_id=$2`

	var p domain.Participation
	var user domain.UserSnapshot
	if err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(
		&p.EventID,
		&p.UserID,
		&p.Role,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&user.ID,
		&user.FullName,
	); err != nil {
		return nil, err
	}
	p.User = &user
	return &p, nil
}

func (r *participationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Participation, error) {
	const query = `
        SELECT event_id, user_id, role, status, created_at, updated_at
        FROM user_events WHERE user_id=$1
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Participation
	for rows.Next() {
		var p domain.Participation
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Role, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *participationRepository) UpdateStatus(ctx context.Context, eventID, userID int64, status domain.AttendanceStatus) error {
	const query = `
        UPDATE user_events SET status=$1, updated_at=NOW()
        WHERE event_id=$2 AND user_id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, eventID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *participationRepository) Delete(ctx context.Context, eventID, userID int64) error {
	const query = `DELETE FROM user_events WHERE event_id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, eventID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
