package services

import (
	"context"
	"fmt"
	"strings"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
)

// maxPixKey keeps the merchant account template (gui + key) within 99 bytes.
const maxPixKey = 77

type SettingsService struct {
	Repo *repos.SettingsRepo
	// Fallback is the configured key, used until an admin stores one.
	Fallback string
}

func NewSettingsService(repo *repos.SettingsRepo, fallback string) *SettingsService {
	return &SettingsService{Repo: repo, Fallback: strings.TrimSpace(fallback)}
}

func (s *SettingsService) PixKey(ctx context.Context) (string, error) {
	key, err := s.Repo.PixKey(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		key = s.Fallback
	}
	return key, nil
}

func (s *SettingsService) SetPixKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > maxPixKey {
		return fmt.Errorf("%w: pix key must be 1 to %d bytes", domain.ErrValidation, maxPixKey)
	}
	return s.Repo.SetPixKey(ctx, key)
}
