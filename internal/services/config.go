package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

// configTypeByKey is the closed set of recognized runtime policy keys.
// Updates naming any other key are rejected before any write.
var configTypeByKey = map[string]string{
	types.ConfigKeyRegisterEnabled:      types.ConfigTypeBoolean,
	types.ConfigKeyWorkerAutoTimeout:    types.ConfigTypeNumber,
	types.ConfigKeyWorkerGetNextSubtask: types.ConfigTypeBoolean,
}

type ConfigService interface {
	GetAll(ctx context.Context) (map[string]interface{}, error)
	UpdateMany(ctx context.Context, updates map[string]interface{}) (map[string]interface{}, error)
	// GetBool fails when the key is absent: policy flags must never run
	// undefined, so a missing entry is a deployment defect, not a default.
	GetBool(ctx context.Context, key string) (bool, error)
	GetInt(ctx context.Context, key string) (int, error)
	// SeedDefaults writes the default policy entries when the config table
	// is empty. Existing entries are never touched.
	SeedDefaults(ctx context.Context) error
}

type configService struct {
	db         *gorm.DB
	log        *logger.Logger
	configRepo repos.ConfigRepo
}

func NewConfigService(db *gorm.DB, log *logger.Logger, configRepo repos.ConfigRepo) ConfigService {
	serviceLog := log.With("service", "ConfigService")
	return &configService{db: db, log: serviceLog, configRepo: configRepo}
}

func (cs *configService) GetAll(ctx context.Context) (map[string]interface{}, error) {
	entries, err := cs.configRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load config entries: %w", err)
	}
	parsed := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		value, err := parseConfigValue(entry.Type, entry.Value)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", entry.Key, err)
		}
		parsed[entry.Key] = value
	}
	return parsed, nil
}

func (cs *configService) UpdateMany(ctx context.Context, updates map[string]interface{}) (map[string]interface{}, error) {
	if len(updates) == 0 {
		return nil, apperrors.Validation("No configuration values provided")
	}

	entries := make([]*types.AppConfig, 0, len(updates))
	for key, raw := range updates {
		expectedType, ok := configTypeByKey[key]
		if !ok {
			return nil, apperrors.Validation("Invalid configuration key")
		}
		stored, err := formatConfigValue(expectedType, raw)
		if err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("Invalid value for configuration key '%s'", key))
		}
		entries = append(entries, &types.AppConfig{Key: key, Value: stored, Type: expectedType})
	}

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := cs.configRepo.Upsert(ctx, tx, entry); err != nil {
				return fmt.Errorf("store config %s: %w", entry.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cs.GetAll(ctx)
}

func (cs *configService) GetBool(ctx context.Context, key string) (bool, error) {
	entry, err := cs.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	value, err := parseConfigValue(types.ConfigTypeBoolean, entry.Value)
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("Config key '%s' holds an invalid value", key))
	}
	return value.(bool), nil
}

func (cs *configService) GetInt(ctx context.Context, key string) (int, error) {
	entry, err := cs.lookup(ctx, key)
	if err != nil {
		return 0, err
	}
	value, err := parseConfigValue(types.ConfigTypeNumber, entry.Value)
	if err != nil {
		return 0, apperrors.Validation(fmt.Sprintf("Config key '%s' holds an invalid value", key))
	}
	return value.(int), nil
}

func (cs *configService) SeedDefaults(ctx context.Context) error {
	count, err := cs.configRepo.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count config entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []*types.AppConfig{
		{Key: types.ConfigKeyRegisterEnabled, Value: "true", Type: types.ConfigTypeBoolean},
		{Key: types.ConfigKeyWorkerAutoTimeout, Value: "0", Type: types.ConfigTypeNumber},
		{Key: types.ConfigKeyWorkerGetNextSubtask, Value: "false", Type: types.ConfigTypeBoolean},
	}
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range defaults {
			if err := cs.configRepo.Upsert(ctx, tx, entry); err != nil {
				return fmt.Errorf("seed config %s: %w", entry.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.log.Info("Default configurations initialized")
	return nil
}

func (cs *configService) lookup(ctx context.Context, key string) (*types.AppConfig, error) {
	entry, err := cs.configRepo.GetByKey(ctx, nil, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Validation(fmt.Sprintf("Config key '%s' not found.", key))
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", key, err)
	}
	return entry, nil
}

func parseConfigValue(valueType, value string) (interface{}, error) {
	switch valueType {
	case types.ConfigTypeBoolean:
		switch value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("invalid boolean value: %s", value)
		}
	case types.ConfigTypeNumber:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid number value: %s", value)
		}
		return parsed, nil
	case types.ConfigTypeString:
		return value, nil
	default:
		return nil, fmt.Errorf("invalid configuration type: %s", valueType)
	}
}

// formatConfigValue validates an incoming JSON value against the key's type
// and renders the stored string form. JSON numbers arrive as float64.
func formatConfigValue(valueType string, raw interface{}) (string, error) {
	switch valueType {
	case types.ConfigTypeBoolean:
		switch v := raw.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			if v == "true" || v == "false" {
				return v, nil
			}
		}
	case types.ConfigTypeNumber:
		switch v := raw.(type) {
		case float64:
			return strconv.Itoa(int(v)), nil
		case int:
			return strconv.Itoa(v), nil
		case string:
			if _, err := strconv.Atoi(v); err == nil {
				return v, nil
			}
		}
	case types.ConfigTypeString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("value does not match type %s", valueType)
}
