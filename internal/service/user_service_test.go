package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"library/internal/config"
	"library/internal/domain"
	"library/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock of the domain.Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockRepository) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockRepository) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Book), args.Error(1)
}

func (m *MockRepository) UpsertBook(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockRepository) GetBorrowing(ctx context.Context, id int64) (*models.Borrowing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockRepository) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]*models.Borrowing, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Borrowing), args.Error(1)
}

func (m *MockRepository) ListOverdueBorrowings(ctx context.Context, today time.Time) ([]*models.Borrowing, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]*models.Borrowing), args.Error(1)
}

func (m *MockRepository) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockRepository) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func TestUserService_IsStaff(t *testing.T) {
	mockRepo := new(MockRepository)
	logger := zerolog.Nop()
	cfg := &config.Config{
		Staff: []int64{123, 456},
	}

	s := NewUserService(mockRepo, cfg, &logger)

	assert.True(t, s.IsStaff(123))
	assert.True(t, s.IsStaff(456))
	assert.False(t, s.IsStaff(789))
	assert.False(t, s.IsStaff(0))
}

func TestUserService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	logger := zerolog.Nop()
	cfg := &config.Config{
		Staff: []int64{123},
	}

	s := NewUserService(mockRepo, cfg, &logger)
	ctx := context.Background()

	t.Run("staff flag follows config", func(t *testing.T) {
		user := &models.User{TelegramID: 123, Username: "librarian"}
		mockRepo.On("CreateOrUpdateUser", ctx, user).Return(nil).Once()

		got, err := s.Register(ctx, user)
		assert.NoError(t, err)
		assert.True(t, got.IsStaff)
	})

	t.Run("regular member", func(t *testing.T) {
		user := &models.User{TelegramID: 777, IsStaff: true}
		mockRepo.On("CreateOrUpdateUser", ctx, user).Return(nil).Once()

		got, err := s.Register(ctx, user)
		assert.NoError(t, err)
		assert.False(t, got.IsStaff)
	})

	t.Run("missing telegram id", func(t *testing.T) {
		_, err := s.Register(ctx, &models.User{Username: "ghost"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("store error", func(t *testing.T) {
		user := &models.User{TelegramID: 888}
		mockRepo.On("CreateOrUpdateUser", ctx, user).Return(errors.New("disk full")).Once()

		_, err := s.Register(ctx, user)
		assert.Error(t, err)
	})

	mockRepo.AssertExpectations(t)
}

func TestUserService_GetByTelegramID(t *testing.T) {
	mockRepo := new(MockRepository)
	logger := zerolog.Nop()
	s := NewUserService(mockRepo, &config.Config{}, &logger)
	ctx := context.Background()

	mockRepo.On("GetUserByTelegramID", ctx, int64(42)).Return(&models.User{ID: 7, TelegramID: 42}, nil)
	mockRepo.On("GetUserByTelegramID", ctx, int64(43)).Return(nil, domain.ErrNotFound)

	user, err := s.GetByTelegramID(ctx, 42)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)

	_, err = s.GetByTelegramID(ctx, 43)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
