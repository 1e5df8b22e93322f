package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deptevents/event-registration/internal/domain"
)

// EventFilter captures listing parameters.
type EventFilter struct {
	Statuses []domain.EventStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// EventRepository encapsulates event persistence. Participations are always
// loaded together with their user snapshot so that callers never fetch lazily.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	GetWithParticipants(ctx context.Context, id int64) (*domain.EventWithParticipants, error)
	ListWithParticipants(ctx context.Context, filter EventFilter) ([]domain.EventWithParticipants, error)
	ListOngoingUntil(ctx context.Context, day time.Time) ([]domain.Event, error)
	SetStatus(ctx context.Context, id int64, status domain.EventStatus) error
	SetLocked(ctx context.Context, id int64, locked bool) error
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `id, name, school_name, day_start, start_period, end_period, max_user_joined, number_of_student, status, is_locked, created_at, updated_at`

func scanEvent(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(
		&event.ID,
		&event.Name,
		&event.SchoolName,
		&event.Day,
		&event.StartPeriod,
		&event.EndPeriod,
		&event.MaxUserJoined,
		&event.NumberOfStudent,
		&event.Status,
		&event.IsLocked,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (name, school_name, day_start, start_period, end_period, max_user_joined, number_of_student, status, is_locked)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		event.Name,
		event.SchoolName,
		event.Day,
		event.StartPeriod,
		event.EndPeriod,
		event.MaxUserJoined,
		event.NumberOfStudent,
		event.Status,
		event.IsLocked,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

// Update writes the editable columns. The event row is locked while the new
// capacity is checked against the participant count, so a concurrent join
// cannot slip past it. Status and lock state are owned by SetStatus and
// SetLocked and are read back, never written.
func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var status domain.EventStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM events WHERE id=$1 FOR UPDATE`, event.ID).Scan(&status); err != nil {
		return err
	}
	if status == domain.EventStatusDeleted {
		return domain.ErrEventNotFound
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM user_events WHERE event_id=$1`, event.ID).Scan(&count); err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	if event.MaxUserJoined < count {
		return domain.ErrCapacityBelowCount
	}

	const query = `
        UPDATE events SET name=$1, school_name=$2, day_start=$3, start_period=$4, end_period=$5,
            max_user_joined=$6, number_of_student=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING status, is_locked, updated_at`
	if err := tx.QueryRow(ctx, query,
		event.Name,
		event.SchoolName,
		event.Day,
		event.StartPeriod,
		event.EndPeriod,
		event.MaxUserJoined,
		event.NumberOfStudent,
		event.ID,
	).Scan(&event.Status, &event.IsLocked, &event.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *eventRepository) GetWithParticipants(ctx context.Context, id int64) (*domain.EventWithParticipants, error) {
	event, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	byEvent, err := loadParticipants(ctx, r.pool, []int64{event.ID})
	if err != nil {
		return nil, err
	}
	return &domain.EventWithParticipants{Event: *event, Participants: byEvent[event.ID]}, nil
}

func (r *eventRepository) ListWithParticipants(ctx context.Context, filter EventFilter) ([]domain.EventWithParticipants, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE TRUE`
	args := []any{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND day_start >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND day_start <= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY day_start, start_period, id LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.EventWithParticipants
	var ids []int64
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, domain.EventWithParticipants{Event: *event})
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return events, nil
	}

	byEvent, err := loadParticipants(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Participants = byEvent[events[i].Event.ID]
	}
	return events, nil
}

func (r *eventRepository) ListOngoingUntil(ctx context.Context, day time.Time) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status=$1 AND day_start <= $2 ORDER BY day_start, id`
	rows, err := r.pool.Query(ctx, query, domain.EventStatusOngoing, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *eventRepository) SetStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	const query = `UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) SetLocked(ctx context.Context, id int64, locked bool) error {
	const query = `UPDATE events SET is_locked=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, locked, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadParticipants returns the participations of each event in join order,
// each carrying its user snapshot.
func loadParticipants(ctx context.Context, q querier, eventIDs []int64) (map[int64][]domain.Participation, error) {
	const query = `
        SELECT ue.event_id, ue.user_id, ue.role, ue.status, ue.created_at, ue.updated_at,
               u.id, COALESCE(u.full_name, '')
        FROM user_events ue
        JOIN users u ON u.id = ue.user_id
        WHERE ue.event_id = ANY($1)
        ORDER BY ue.event_id, ue.created_at, ue.user_id`

	rows, err := q.Query(ctx, query, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.Participation, len(eventIDs))
	for rows.Next() {
		var p domain.Participation
		var user domain.UserSnapshot
		if err := rows.Scan(
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
		result[p.EventID] = append(result[p.EventID], p)
	}
	return result, rows.Err()
}
