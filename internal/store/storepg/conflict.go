package storepg

import (
	"context"
	"time"

	"memorycore/internal/domain"
)

func (s *Store) RecordConflict(ctx context.Context, c domain.MemoryConflict) (domain.MemoryConflict, error) {
	row := memoryConflictRow{
		DetectedAtEventID:  c.DetectedAtEventID,
		Type:               string(c.Type),
		ConflictData:       JSONMap(c.ConflictData),
		ResolutionStrategy: string(c.ResolutionStrategy),
		ResolutionOutcome:  JSONMap(c.ResolutionOutcome),
		ResolvedAt:         c.ResolvedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.MemoryConflict{}, wrapDBErr(err, "record conflict")
	}
	out := c
	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	return out, nil
}

func (s *Store) ResolveConflict(ctx context.Context, id int64, strategy domain.ResolutionStrategy, outcome map[string]any) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&memoryConflictRow{}).Where("id = ?", id).
		Updates(map[string]any{
			"resolution_strategy": string(strategy),
			"resolution_outcome":  JSONMap(outcome),
			"resolved_at":         now,
		}).Error
	return wrapDBErr(err, "resolve conflict")
}
