package service

import (
	"context"

	"tourcrm/internal/domain"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
)

// UserService справочник пользователей для назначения менеджеров.
// Пользователи неизменяемы после создания.
type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) Create(ctx context.Context, username, role string) (*models.User, error) {
	if role == "" {
		role = models.RoleManager
	}
	user := &models.User{Username: username, Role: role}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

// List возвращает всех пользователей: модальное окно назначения
// менеджера показывает полный список.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// Delete удаляет пользователя; его заявки остаются без назначения.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
