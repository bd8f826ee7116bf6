package storepg

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memorycore/internal/domain"
)

// AppendChatEvent is idempotent on (SessionID, ContentHash) via an
// on-conflict-do-nothing insert followed by a re-read, the same race-safe
// pattern the Store contract requires for canonical entity creation.
func (s *Store) AppendChatEvent(ctx context.Context, ev domain.ChatEvent) (int64, bool, error) {
	row := chatEventRow{
		SessionID:        ev.SessionID,
		UserID:           ev.UserID,
		Role:             string(ev.Role),
		Content:          ev.Content,
		ContentHash:      ev.ContentHash,
		SessionIDForHash: ev.SessionID,
		Metadata:         JSONMap(ev.Metadata),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_hash"}, {Name: "session_id_for_hash"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return 0, false, wrapDBErr(result.Error, "append chat event")
	}
	if result.RowsAffected > 0 {
		return row.ID, true, nil
	}

	var existing chatEventRow
	err := s.db.WithContext(ctx).
		Where("session_id_for_hash = ? AND content_hash = ?", ev.SessionID, ev.ContentHash).
		First(&existing).Error
	if err != nil {
		return 0, false, wrapDBErr(err, "re-read chat event after conflict")
	}
	return existing.ID, false, nil
}

func (s *Store) RecentChatEvents(ctx context.Context, sessionID string, limit int) ([]domain.ChatEvent, error) {
	var rows []chatEventRow
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapDBErr(err, "recent chat events")
	}
	out := make([]domain.ChatEvent, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, toDomainChatEvent(rows[i]))
	}
	return out, nil
}

func toDomainChatEvent(r chatEventRow) domain.ChatEvent {
	return domain.ChatEvent{
		ID:          r.ID,
		SessionID:   r.SessionID,
		UserID:      r.UserID,
		Role:        domain.Role(r.Role),
		Content:     r.Content,
		ContentHash: r.ContentHash,
		Metadata:    map[string]any(r.Metadata),
		CreatedAt:   r.CreatedAt,
	}
}
