package service

import (
	"context"
	"fmt"

	"library/internal/config"
	"library/internal/domain"
	"library/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo     domain.Repository
	logger   *zerolog.Logger
	staffMap map[int64]bool
}

func NewUserService(repo domain.Repository, cfg *config.Config, logger *zerolog.Logger) *UserService {
	staffMap := make(map[int64]bool)
	for _, id := range cfg.Staff {
		staffMap[id] = true
	}

	return &UserService{
		repo:     repo,
		logger:   logger,
		staffMap: staffMap,
	}
}

// IsStaff reports whether the telegram id is configured as library staff.
func (s *UserService) IsStaff(telegramID int64) bool {
	return s.staffMap[telegramID]
}

// Register stores the chat identity and returns the persisted user. The staff flag always follows the configuration.
func (s *UserService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.TelegramID == 0 {
		return nil, fmt.Errorf("%w: telegram id is required", domain.ErrValidation)
	}
	user.IsStaff = s.IsStaff(user.TelegramID)
	if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUserByTelegramID(ctx, telegramID)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
