package storepg

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

// GetAliasesByText orders user-specific rows first, then confidence
// descending, per §4.C1.
func (s *Store) GetAliasesByText(ctx context.Context, text string, userID string) ([]domain.EntityAlias, error) {
	var rows []entityAliasRow
	err := s.db.WithContext(ctx).
		Where("alias_text = ? AND (user_id = ? OR user_id IS NULL)", text, userID).
		Order("(user_id IS NOT NULL) DESC, confidence DESC").
		Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapDBErr(err, "get aliases by text")
	}
	out := make([]domain.EntityAlias, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainAlias(r))
	}
	return out, nil
}

// UpsertAlias increments UseCount and raises Confidence to the max of
// old/new on a uniqueness conflict of (AliasText, UserID, CanonicalID).
func (s *Store) UpsertAlias(ctx context.Context, a domain.EntityAlias) (domain.EntityAlias, error) {
	row := entityAliasRow{
		AliasText:   a.AliasText,
		CanonicalID: a.CanonicalID,
		Source:      string(a.Source),
		UserID:      a.UserID,
		Confidence:  a.Confidence,
		UseCount:    1,
		Metadata:    JSONMap(a.Metadata),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entityAliasRow
		q := tx.Where("alias_text = ? AND canonical_id = ?", a.AliasText, a.CanonicalID)
		if a.UserID == nil {
			q = q.Where("user_id IS NULL")
		} else {
			q = q.Where("user_id = ?", *a.UserID)
		}
		err := q.First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
		}
		if err != nil {
			return err
		}
		existing.UseCount++
		existing.Confidence = math.Max(existing.Confidence, a.Confidence)
		row = existing
		return tx.Model(&entityAliasRow{}).Where("id = ?", existing.ID).
			Updates(map[string]any{"use_count": existing.UseCount, "confidence": existing.Confidence}).Error
	})
	if err != nil {
		return domain.EntityAlias{}, wrapDBErr(err, "upsert alias")
	}
	return toDomainAlias(row), nil
}

// SearchAliasesFuzzy leans on the app namespace's pg_trgm index
// (idx_alias_trgm) via the `similarity` operator for trigram scoring.
func (s *Store) SearchAliasesFuzzy(ctx context.Context, text string, threshold float64, limit int) ([]store.FuzzyAliasMatch, error) {
	type row struct {
		AliasText   string
		CanonicalID string
		Score       float64
	}
	var rows []row
	err := s.db.WithContext(ctx).Table("app.entity_aliases").
		Select("alias_text, canonical_id, similarity(alias_text, ?) AS score", text).
		Where("similarity(alias_text, ?) >= ?", text, threshold).
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBErr(err, "search aliases fuzzy")
	}
	out := make([]store.FuzzyAliasMatch, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.FuzzyAliasMatch{AliasText: r.AliasText, EntityID: r.CanonicalID, Score: r.Score})
	}
	return out, nil
}

func toDomainAlias(r entityAliasRow) domain.EntityAlias {
	return domain.EntityAlias{
		ID:          r.ID,
		AliasText:   r.AliasText,
		CanonicalID: r.CanonicalID,
		Source:      domain.AliasSource(r.Source),
		UserID:      r.UserID,
		Confidence:  r.Confidence,
		UseCount:    r.UseCount,
		Metadata:    map[string]any(r.Metadata),
		CreatedAt:   r.CreatedAt,
	}
}
