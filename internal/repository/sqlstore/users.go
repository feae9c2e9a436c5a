package sqlstore

import (
	"context"

	"cafepos/internal/domain"
)

const userColumns = "id, username, password, role"

func (s *Store) FindByUsername(ctx context.Context, username string) ([]domain.User, error) {
	out := make([]domain.User, 0, 1)
	if err := s.selectRows(ctx, &out, "SELECT "+userColumns+" FROM users WHERE username = ? ORDER BY id", username); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := s.get(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, includeAdmin bool) ([]domain.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if !includeAdmin {
		query += " WHERE role != ?"
		args = append(args, string(domain.RoleAdmin))
	}
	query += " ORDER BY username, id"
	out := make([]domain.User, 0)
	if err := s.selectRows(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	id, err := s.insert(ctx, "INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		u.Username, u.Password, string(u.Role))
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := s.mustExist(ctx, "users", u.ID); err != nil {
		return err
	}
	_, err := s.ext(ctx).ExecContext(ctx, "UPDATE users SET username = ?, password = ?, role = ? WHERE id = ?",
		u.Username, u.Password, string(u.Role), u.ID)
	return err
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execByID(ctx, "DELETE FROM users WHERE id = ?", id)
}
