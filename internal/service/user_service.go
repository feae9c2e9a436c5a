package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

// UserService вход и управление серверами
type UserService struct {
	users repository.Users
	tx    repository.TxManager
	// hash новые пароли хранятся как bcrypt; старые строки остаются открытым текстом
	hash bool
}

func NewUserService(users repository.Users, tx repository.TxManager, hashPasswords bool) *UserService {
	return &UserService{users: users, tx: tx, hash: hashPasswords}
}

// Authenticate возвращает (user, true) при точном совпадении логина и пароля
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, bool, error) {
	if username == "" || password == "" {
		return nil, false, nil
	}
	candidates, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	for _, u := range candidates {
		if passwordMatches(u.Password, password) {
			pub := u.Public()
			return &pub, true, nil
		}
	}
	return nil, false, nil
}

func passwordMatches(stored, given string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// ListServers без администратора, если includeAdmin=false
func (s *UserService) ListServers(ctx context.Context, includeAdmin bool) ([]domain.User, error) {
	list, err := s.users.ListUsers(ctx, includeAdmin)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Public()
	}
	return list, nil
}

// CreateServer role "" означает serveur
func (s *UserService) CreateServer(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if role == "" {
		role = domain.RoleServer
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}
	stored, err := s.storedPassword(password)
	if err != nil {
		return nil, err
	}
	u := domain.User{Username: username, Password: stored, Role: role}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) UpdateServer(ctx context.Context, id int64, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if id <= 0 || username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	stored, err := s.storedPassword(password)
	if err != nil {
		return nil, err
	}
	var updated domain.User
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			return err
		}
		u.Username = username
		u.Password = stored
		if err := s.users.UpdateUser(ctx, u); err != nil {
			return err
		}
		updated = u.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteServer учётную запись администратора удалить нельзя
func (s *UserService) DeleteServer(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", domain.ErrValidation)
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if u.IsAdmin() {
			return fmt.Errorf("%w: the admin account cannot be deleted", domain.ErrConstraint)
		}
		return s.users.DeleteUser(ctx, id)
	})
}

func (s *UserService) storedPassword(password string) (string, error) {
	if !s.hash {
		return password, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
