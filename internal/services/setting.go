package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/jobportal/apiserver/types"
)

// SettingRepository defines persistence operations for site settings.
type SettingRepository interface {
	List(ctx context.Context) ([]types.Setting, error)
	Get(ctx context.Context, key string) (types.Setting, error)
	UpdateValue(ctx context.Context, key, value string, updatedBy int) error
	InsertIfMissing(ctx context.Context, s types.Setting) (bool, error)
}

type SettingService struct {
	repo SettingRepository
}

func NewSettingService(repo SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

func (s *SettingService) List(ctx context.Context) ([]types.Setting, error) {
	return s.repo.List(ctx)
}

func (s *SettingService) Get(ctx context.Context, key string) (types.Setting, error) {
	return s.repo.Get(ctx, key)
}

// SettingValue is one entry of a settings update.
type SettingValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Update validates every value against its declared type before writing
// any of them. Unknown keys yield store.ErrNotFound.
func (s *SettingService) Update(ctx context.Context, actor types.User, values []SettingValue) ([]types.Setting, error) {
	if len(values) == 0 {
		return nil, validationError("settings are required")
	}

	normalized := make([]SettingValue, 0, len(values))
	for _, v := range values {
		current, err := s.repo.Get(ctx, strings.TrimSpace(v.Key))
		if err != nil {
			return nil, err
		}
		value, err := normalizeSettingValue(current.Type, v.Value)
		if err != nil {
			return nil, validationError("invalid value for %s: %v", current.Key, err)
		}
		normalized = append(normalized, SettingValue{Key: current.Key, Value: value})
	}

	for _, v := range normalized {
		if err := s.repo.UpdateValue(ctx, v.Key, v.Value, actor.ID); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx)
}

// Seed inserts the default settings that are missing and returns how many
// were inserted. Existing values are never overwritten.
func (s *SettingService) Seed(ctx context.Context) (int, error) {
	inserted := 0
	for _, def := range types.DefaultSettings {
		ok, err := s.repo.InsertIfMissing(ctx, def)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func normalizeSettingValue(kind types.SettingType, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case types.SettingBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case types.SettingNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "", err
		}
		return value, nil
	default:
		return value, nil
	}
}
