// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/repository"
)

// Store keeps users, events, participations and tokens in memory. The
// repositories it hands out share its state, so participants always carry
// the current user snapshot.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
	events map[int64]domain.Event
	parts  []domain.Participation
	tokens map[int64]domain.OneTimeToken
	Now     func() time.Time
	JoinErr error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:  make(map[int64]domain.User),
		events: make(map[int64]domain.Event),
		tokens: make(map[int64]domain.OneTimeToken),
		Now:    time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users returns a UserRepository backed by the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Events returns an EventRepository backed by the store.
func (s *Store) Events() repository.EventRepository { return eventRepo{s} }

// Participations returns a ParticipationRepository backed by the store.
func (s *Store) Participations() repository.ParticipationRepository { return participationRepo{s} }

// Tokens returns a TokenRepository backed by the store.
func (s *Store) Tokens() repository.TokenRepository { return tokenRepo{s} }

// AddUser inserts a user directly and returns it with its id.
func (s *Store) AddUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	user.CreatedAt = s.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user
}

// AddEvent inserts an event directly and returns it with its id.
func (s *Store) AddEvent(event domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.id()
	if event.Status == "" {
		event.Status = domain.EventStatusOngoing
	}
	event.CreatedAt = s.Now()
	event.UpdatedAt = event.CreatedAt
	s.events[event.ID] = event
	return event
}

// AddParticipation inserts a participation without any checks.
func (s *Store) AddParticipation(p domain.Participation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = s.Now()
	p.UpdatedAt = p.CreatedAt
	s.parts = append(s.parts, p)
}

// Event returns the stored event.
func (s *Store) Event(id int64) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

// User returns the stored user.
func (s *Store) User(id int64) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// TokensFor returns all tokens issued to a user for a purpose.
func (s *Store) TokensFor(userID int64, purpose domain.TokenPurpose) []domain.OneTimeToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.OneTimeToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			result = append(result, t)
		}
	}
	return result
}

// ParticipantCount returns the number of participations of an event.
func (s *Store) ParticipantCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participantsLocked(eventID))
}

func (s *Store) participantsLocked(eventID int64) []domain.Participation {
	var result []domain.Participation
	for _, p := range s.parts {
		if p.EventID != eventID {
			continue
		}
		if user, ok := s.users[p.UserID]; ok {
			p.User = &domain.UserSnapshot{ID: user.ID, FullName: user.DisplayName()}
		}
		result = append(result, p)
	}
	return result
}

func (s *Store) partIndexLocked(eventID, userID int64) int {
	for i, p := range s.parts {
		if p.EventID == eventID && p.UserID == userID {
			return i
		}
	}
	return -1
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.s.Now()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if filter.Search != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.Search))
			if !strings.Contains(strings.ToLower(u.Email), term) && !strings.Contains(strings.ToLower(u.DisplayName()), term) {
				continue
			}
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return page(result, filter.Limit, filter.Offset, 50), nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) Create(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.ID = r.s.id()
	event.CreatedAt = r.s.Now()
	event.UpdatedAt = event.CreatedAt
	r.s.events[event.ID] = *event
	return nil
}

func (r eventRepo) Update(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.events[event.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status == domain.EventStatusDeleted {
		return domain.ErrEventNotFound
	}
	if event.MaxUserJoined < len(r.s.participantsLocked(event.ID)) {
		return domain.ErrCapacityBelowCount
	}
	event.Status = stored.Status
	event.IsLocked = stored.IsLocked
	event.CreatedAt = stored.CreatedAt
	event.UpdatedAt = r.s.Now()
	r.s.events[event.ID] = *event
	return nil
}

func (r eventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &event, nil
}

func (r eventRepo) GetWithParticipants(_ context.Context, id int64) (*domain.EventWithParticipants, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.EventWithParticipants{Event: event, Participants: r.s.participantsLocked(id)}, nil
}

func (r eventRepo) ListWithParticipants(_ context.Context, filter repository.EventFilter) ([]domain.EventWithParticipants, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Event
	for _, e := range r.s.events {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, e.Status) {
			continue
		}
		if filter.From != nil && e.Day.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Day.After(*filter.To) {
			continue
		}
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		if a.StartPeriod != b.StartPeriod {
			return a.StartPeriod < b.StartPeriod
		}
		return a.ID < b.ID
	})
	list = page(list, filter.Limit, filter.Offset, 20)

	result := make([]domain.EventWithParticipants, 0, len(list))
	for _, e := range list {
		result = append(result, domain.EventWithParticipants{Event: e, Participants: r.s.participantsLocked(e.ID)})
	}
	return result, nil
}

func (r eventRepo) ListOngoingUntil(_ context.Context, day time.Time) ([]domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Event
	for _, e := range r.s.events {
		if e.Status == domain.EventStatusOngoing && !e.Day.After(day) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r eventRepo) SetStatus(_ context.Context, id int64, status domain.EventStatus) error {
	return r.mutate(id, func(e *domain.Event) { e.Status = status })
}

func (r eventRepo) SetLocked(_ context.Context, id int64, locked bool) error {
	return r.mutate(id, func(e *domain.Event) { e.IsLocked = locked })
}

func (r eventRepo) mutate(id int64, fn func(*domain.Event)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&event)
	event.UpdatedAt = r.s.Now()
	r.s.events[id] = event
	return nil
}

type participationRepo struct{ s *Store }

// Join holds the store lock for the whole check-and-insert, mirroring the
// row lock taken by the Postgres implementation.
func (r participationRepo) Join(_ context.Context, p *domain.Participation, check repository.JoinCheck) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.JoinErr != nil {
		return r.s.JoinErr
	}
	event, ok := r.s.events[p.EventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if r.s.partIndexLocked(p.EventID, p.UserID) >= 0 {
		return domain.ErrAlreadyJoined
	}
	if check != nil {
		if err := check(&event, len(r.s.participantsLocked(event.ID))); err != nil {
			return err
		}
	}
	p.CreatedAt = r.s.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.parts = append(r.s.parts, *p)
	return nil
}

func (r participationRepo) Get(_ context.Context, eventID, userID int64) (*domain.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participantsLocked(eventID) {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r participationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Participation
	for i := len(r.s.parts) - 1; i >= 0; i-- {
		if r.s.parts[i].UserID == userID {
			result = append(result, r.s.parts[i])
		}
	}
	return result, nil
}

func (r participationRepo) UpdateStatus(_ context.Context, eventID, userID int64, status domain.AttendanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.partIndexLocked(eventID, userID)
	if i < 0 {
		return pgx.ErrNoRows
	}
	r.s.parts[i].Status = status
	r.s.parts[i].UpdatedAt = r.s.Now()
	return nil
}

func (r participationRepo) Delete(_ context.Context, eventID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.partIndexLocked(eventID, userID)
	if i < 0 {
		return pgx.ErrNoRows
	}
	r.s.parts = append(r.s.parts[:i], r.s.parts[i+1:]...)
	return nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, token *domain.OneTimeToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.id()
	token.CreatedAt = r.s.Now()
	r.s.tokens[token.ID] = *token
	return nil
}

func (r tokenRepo) GetByToken(_ context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.OneTimeToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Purpose == purpose && t.Token == tokenStr {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r tokenRepo) MarkUsed(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.tokens[id]
	if !ok || token.UsedAt != nil {
		return domain.ErrTokenInvalid
	}
	now := r.s.Now()
	token.UsedAt = &now
	r.s.tokens[id] = token
	return nil
}

func containsStatus(statuses []domain.EventStatus, status domain.EventStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
