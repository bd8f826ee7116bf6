package storepg

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"memorycore/internal/domain"
)

func (s *Store) GetConfig(ctx context.Context, key string) (domain.SystemConfigEntry, bool, error) {
	var row systemConfigRow
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SystemConfigEntry{}, false, nil
	}
	if err != nil {
		return domain.SystemConfigEntry{}, false, wrapDBErr(err, "get config")
	}
	return domain.SystemConfigEntry{Key: row.Key, Value: map[string]any(row.Value)["value"], UpdatedAt: row.UpdatedAt}, true, nil
}
