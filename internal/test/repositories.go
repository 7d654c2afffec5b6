package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, email, name, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Email: email, Name: name, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[email] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// BuyNowStoreStub keeps buy-now sessions in a map.
type BuyNowStoreStub struct {
	mu       sync.Mutex
	Sessions map[int64]model.BuyNowSession
	GetErr   error
	SaveErr  error
}

// NewBuyNowStoreStub returns an empty session store.
func NewBuyNowStoreStub() *BuyNowStoreStub {
	return &BuyNowStoreStub{Sessions: make(map[int64]model.BuyNowSession)}
}

func (s *BuyNowStoreStub) Get(ctx context.Context, userID int64) (*model.BuyNowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	session, ok := s.Sessions[userID]
	if !ok {
		return nil, nil
	}
	session.SavedCartItems = append([]model.CartLine(nil), session.SavedCartItems...)
	return &session, nil
}

func (s *BuyNowStoreStub) Save(ctx context.Context, userID int64, session *model.BuyNowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.Sessions == nil {
		s.Sessions = make(map[int64]model.BuyNowSession)
	}
	s.Sessions[userID] = *session
	return nil
}

func (s *BuyNowStoreStub) Delete(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Sessions, userID)
	return nil
}

// OutboxRepositoryStub lets relay tests script outbox behaviour.
type OutboxRepositoryStub struct {
	mu sync.Mutex

	ClaimFn    func(context.Context, int) ([]model.OutboxEvent, error)
	MarkSentFn func(context.Context, int64) error
	ReleaseFn  func(context.Context, int64) error

	Sent     []int64
	Released []int64
}

func (s *OutboxRepositoryStub) Insert(ctx context.Context, event *model.OutboxEvent) error {
	return nil
}

func (s *OutboxRepositoryStub) ClaimBatch(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	return nil, nil
}

func (s *OutboxRepositoryStub) MarkSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, id)
	s.mu.Unlock()
	if s.MarkSentFn != nil {
		return s.MarkSentFn(ctx, id)
	}
	return nil
}

func (s *OutboxRepositoryStub) Release(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.Released = append(s.Released, id)
	s.mu.Unlock()
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, id)
	}
	return nil
}

// SentIDs returns a copy of the ids marked sent.
func (s *OutboxRepositoryStub) SentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.Sent...)
}

// ReleasedIDs returns a copy of the released ids.
func (s *OutboxRepositoryStub) ReleasedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.Released...)
}

var (
	_ repository.UserRepository   = (*UserRepositoryStub)(nil)
	_ repository.BuyNowStore      = (*BuyNowStoreStub)(nil)
	_ repository.OutboxRepository = (*OutboxRepositoryStub)(nil)
)
