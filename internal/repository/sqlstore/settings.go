package sqlstore

import (
	"context"
	"errors"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var st domain.Settings
	if err := s.get(ctx, &st, "SELECT id, cafe_name FROM settings ORDER BY id LIMIT 1"); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveSettings обновляет первую строку или вставляет новую
func (s *Store) SaveSettings(ctx context.Context, st *domain.Settings) error {
	var id int64
	err := s.get(ctx, &id, "SELECT id FROM settings ORDER BY id LIMIT 1")
	switch {
	case errors.Is(err, repository.ErrNotFound):
		newID, err := s.insert(ctx, "INSERT INTO settings (cafe_name) VALUES (?)", st.CafeName)
		if err != nil {
			return err
		}
		st.ID = newID
		return nil
	case err != nil:
		return err
	}
	if _, err := s.ext(ctx).ExecContext(ctx, "UPDATE settings SET cafe_name = ? WHERE id = ?", st.CafeName, id); err != nil {
		return err
	}
	st.ID = id
	return nil
}
