package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
)

type SettingsService struct {
	repo repository.Settings
}

func NewSettingsService(repo repository.Settings) *SettingsService {
	return &SettingsService{repo: repo}
}

// CafeName имя из настроек или значение по умолчанию
func (s *SettingsService) CafeName(ctx context.Context) (string, error) {
	st, err := s.repo.GetSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultCafeName, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(st.CafeName) == "" {
		return domain.DefaultCafeName, nil
	}
	return st.CafeName, nil
}

func (s *SettingsService) UpdateCafeName(ctx context.Context, name string) (*domain.Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: cafe name is required", domain.ErrValidation)
	}
	st := domain.Settings{CafeName: name}
	if err := s.repo.SaveSettings(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
