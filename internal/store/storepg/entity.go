package storepg

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memorycore/internal/domain"
)

func (s *Store) GetEntityByCanonicalName(ctx context.Context, name string) (domain.CanonicalEntity, bool, error) {
	var row canonicalEntityRow
	err := s.db.WithContext(ctx).Where("canonical_name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CanonicalEntity{}, false, nil
	}
	if err != nil {
		return domain.CanonicalEntity{}, false, wrapDBErr(err, "get entity by canonical name")
	}
	return toDomainEntity(row), true, nil
}

func (s *Store) GetEntityByID(ctx context.Context, id string) (domain.CanonicalEntity, bool, error) {
	var row canonicalEntityRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CanonicalEntity{}, false, nil
	}
	if err != nil {
		return domain.CanonicalEntity{}, false, wrapDBErr(err, "get entity by id")
	}
	return toDomainEntity(row), true, nil
}

// CreateEntity uses on-conflict-do-nothing plus a re-read to satisfy
// testable property 6: two concurrent creates of the same canonical name
// must converge on one row and one id, the row-level-lock alternative
// teacher's DynamoDB layer can't express but Postgres can via a unique
// index plus this pattern.
func (s *Store) CreateEntity(ctx context.Context, e domain.CanonicalEntity) (domain.CanonicalEntity, error) {
	row := canonicalEntityRow{
		ID:            e.ID,
		Type:          string(e.Type),
		CanonicalName: e.CanonicalName,
		SourceTable:   e.ExternalRef.SourceTable,
		SourceID:      e.ExternalRef.SourceID,
		Properties:    JSONMap(e.Properties),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "canonical_name"}}, DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return domain.CanonicalEntity{}, wrapDBErr(result.Error, "create entity")
	}
	if result.RowsAffected > 0 {
		return toDomainEntity(row), nil
	}
	existing, found, err := s.GetEntityByCanonicalName(ctx, e.CanonicalName)
	if err != nil {
		return domain.CanonicalEntity{}, err
	}
	if !found {
		return domain.CanonicalEntity{}, wrapDBErr(gorm.ErrRecordNotFound, "re-read entity after conflict")
	}
	return existing, nil
}

func (s *Store) UpdateEntityProperties(ctx context.Context, id string, patch map[string]any) error {
	var row canonicalEntityRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return wrapDBErr(err, "update entity properties: load")
	}
	if row.Properties == nil {
		row.Properties = JSONMap{}
	}
	for k, v := range patch {
		row.Properties[k] = v
	}
	return wrapDBErr(s.db.WithContext(ctx).Model(&row).Update("properties", row.Properties).Error, "update entity properties")
}

func toDomainEntity(r canonicalEntityRow) domain.CanonicalEntity {
	return domain.CanonicalEntity{
		ID:            r.ID,
		Type:          domain.EntityType(r.Type),
		CanonicalName: r.CanonicalName,
		ExternalRef:   domain.ExternalRef{SourceTable: r.SourceTable, SourceID: r.SourceID},
		Properties:    map[string]any(r.Properties),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
