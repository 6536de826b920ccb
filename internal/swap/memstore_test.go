package swap

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

// memStore — in-memory реализация Store для тестов. Глобальный мьютекс
// сериализует транзакции, откат восстанавливает снимок состояния.
type memStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Item
	users map[uuid.UUID]*models.User
	swaps map[uuid.UUID]*models.Swap
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[uuid.UUID]*models.Item),
		users: make(map[uuid.UUID]*models.User),
		swaps: make(map[uuid.UUID]*models.Swap),
	}
}

func cloneItem(i *models.Item) *models.Item {
	c := *i
	c.Tags = append([]string(nil), i.Tags...)
	c.Images = append([]string(nil), i.Images...)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneSwap(s *models.Swap) *models.Swap {
	c := *s
	if s.InitiatorItemID != nil {
		id := *s.InitiatorItemID
		c.InitiatorItemID = &id
	}
	if s.InitiatorRating != nil {
		r := *s.InitiatorRating
		c.InitiatorRating = &r
	}
	if s.RecipientRating != nil {
		r := *s.RecipientRating
		c.RecipientRating = &r
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make(map[uuid.UUID]*models.Item, len(m.items))
	for id, i := range m.items {
		items[id] = cloneItem(i)
	}
	users := make(map[uuid.UUID]*models.User, len(m.users))
	for id, u := range m.users {
		users[id] = cloneUser(u)
	}
	swaps := make(map[uuid.UUID]*models.Swap, len(m.swaps))
	for id, s := range m.swaps {
		swaps[id] = cloneSwap(s)
	}

	if err := fn(&memTx{m}); err != nil {
		m.items, m.users, m.swaps = items, users, swaps
		return err
	}
	return nil
}

func (m *memStore) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).GetItem(ctx, id)
}

func (m *memStore) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return m.GetItem(ctx, id)
}

func (m *memStore) SetItemStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).SetItemStatus(ctx, id, status)
}

func (m *memStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).GetUser(ctx, id)
}

func (m *memStore) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetUser(ctx, id)
}

func (m *memStore) AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).AdjustPoints(ctx, id, delta)
}

func (m *memStore) SetUserRating(ctx context.Context, id uuid.UUID, rating float64, totalRatings int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).SetUserRating(ctx, id, rating, totalRatings)
}

func (m *memStore) CreateSwap(ctx context.Context, s *models.Swap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).CreateSwap(ctx, s)
}

func (m *memStore) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).GetSwap(ctx, id)
}

func (m *memStore) GetSwapForUpdate(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	return m.GetSwap(ctx, id)
}

func (m *memStore) UpdateSwap(ctx context.Context, s *models.Swap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m}).UpdateSwap(ctx, s)
}

// memTx работает с данными memStore без блокировки: мьютекс уже
// удерживается на время всей транзакции.
type memTx struct {
	m *memStore
}

func (t *memTx) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memTx) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := t.m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, apperr.ErrNotFound)
	}
	return cloneItem(item), nil
}

func (t *memTx) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return t.GetItem(ctx, id)
}

func (t *memTx) SetItemStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) error {
	item, ok := t.m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, apperr.ErrNotFound)
	}
	item.Status = status
	return nil
}

func (t *memTx) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := t.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return cloneUser(user), nil
}

func (t *memTx) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return t.GetUser(ctx, id)
}

func (t *memTx) AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error {
	user, ok := t.m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if user.Points+delta < 0 {
		return fmt.Errorf("balance would go negative: %w", apperr.ErrInsufficientPoints)
	}
	user.Points += delta
	return nil
}

func (t *memTx) SetUserRating(ctx context.Context, id uuid.UUID, rating float64, totalRatings int) error {
	user, ok := t.m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	user.Rating = rating
	user.TotalRatings = totalRatings
	return nil
}

func (t *memTx) CreateSwap(ctx context.Context, s *models.Swap) error {
	t.m.swaps[s.ID] = cloneSwap(s)
	return nil
}

func (t *memTx) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	s, ok := t.m.swaps[id]
	if !ok {
		return nil, fmt.Errorf("swap %s: %w", id, apperr.ErrNotFound)
	}
	return cloneSwap(s), nil
}

func (t *memTx) GetSwapForUpdate(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	return t.GetSwap(ctx, id)
}

func (t *memTx) UpdateSwap(ctx context.Context, s *models.Swap) error {
	if _, ok := t.m.swaps[s.ID]; !ok {
		return fmt.Errorf("swap %s: %w", s.ID, apperr.ErrNotFound)
	}
	t.m.swaps[s.ID] = cloneSwap(s)
	return nil
}

// Хелперы наполнения тестовых данных

func (m *memStore) addUser(points int) uuid.UUID {
	id := uuid.New()
	m.users[id] = &models.User{
		ID:     id,
		Points: points,
		Rating: models.StartingRating,
	}
	return id
}

func (m *memStore) addItem(ownerID uuid.UUID, pointsValue int) uuid.UUID {
	id := uuid.New()
	m.items[id] = &models.Item{
		ID:             id,
		OwnerID:        ownerID,
		PointsValue:    pointsValue,
		Status:         models.ItemAvailable,
		ApprovalStatus: models.ApprovalApproved,
	}
	return id
}
