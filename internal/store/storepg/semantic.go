package storepg

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

func (s *Store) ListActiveSemantic(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND predicate = ? AND status = ?", userID, predicate, string(domain.StatusActive))
	if subjectID != nil {
		q = q.Where("subject_entity_id = ?", *subjectID)
	} else {
		q = q.Where("subject_entity_id IS NULL")
	}
	var rows []semanticMemoryRow
	if err := q.Find(&rows).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapDBErr(err, "list active semantic")
	}
	out := make([]domain.SemanticMemory, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainSemantic(r))
	}
	return out, nil
}

// ListSemanticHistory returns every row for (subject, predicate, user)
// regardless of status, newest first.
func (s *Store) ListSemanticHistory(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND predicate = ?", userID, predicate)
	if subjectID != nil {
		q = q.Where("subject_entity_id = ?", *subjectID)
	} else {
		q = q.Where("subject_entity_id IS NULL")
	}
	var rows []semanticMemoryRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapDBErr(err, "list semantic history")
	}
	out := make([]domain.SemanticMemory, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainSemantic(r))
	}
	return out, nil
}

func (s *Store) CreateSemantic(ctx context.Context, m domain.SemanticMemory) (domain.SemanticMemory, error) {
	row := fromDomainSemantic(m)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.SemanticMemory{}, wrapDBErr(err, "create semantic memory")
	}
	return toDomainSemantic(row), nil
}

func (s *Store) MarkSuperseded(ctx context.Context, oldID, newID int64) error {
	err := s.db.WithContext(ctx).Model(&semanticMemoryRow{}).Where("id = ?", oldID).
		Updates(map[string]any{"status": string(domain.StatusSuperseded), "superseded_by": newID}).Error
	return wrapDBErr(err, "mark superseded")
}

func (s *Store) SetStatus(ctx context.Context, id int64, status domain.MemoryStatus) error {
	err := s.db.WithContext(ctx).Model(&semanticMemoryRow{}).Where("id = ?", id).
		Update("status", string(status)).Error
	return wrapDBErr(err, "set status")
}

func (s *Store) Reinforce(ctx context.Context, id int64, newConfidence float64, lastValidatedAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&semanticMemoryRow{}).Where("id = ?", id).
		Updates(map[string]any{
			"confidence":          newConfidence,
			"last_validated_at":   lastValidatedAt,
			"reinforcement_count": gorm.Expr("reinforcement_count + 1"),
		}).Error
	return wrapDBErr(err, "reinforce")
}

func (s *Store) GetSemanticByID(ctx context.Context, id int64) (domain.SemanticMemory, bool, error) {
	var row semanticMemoryRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SemanticMemory{}, false, nil
	}
	if err != nil {
		return domain.SemanticMemory{}, false, wrapDBErr(err, "get semantic by id")
	}
	return toDomainSemantic(row), true, nil
}

// SemanticCandidates runs an approximate nearest-neighbor search via the
// pgvector cosine-distance operator (`<=>`), restricted to active+aging
// rows (aging is virtual, so this means status=active; aging candidates
// are still status=active rows, only scored differently downstream).
func (s *Store) SemanticCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters store.CandidateFilters, overFetch int) ([]store.SemanticCandidate, error) {
	type row struct {
		semanticMemoryRow
		Distance float64 `gorm:"column:distance"`
	}
	q := s.db.WithContext(ctx).Table("app.semantic_memories").
		Select("app.semantic_memories.*, vector <=> ? AS distance", pgvector.NewVector(queryVec)).
		Where("user_id = ? AND status = ?", userID, string(domain.StatusActive)).
		Where("vector IS NOT NULL")
	if len(entityIDs) > 0 {
		q = q.Where("subject_entity_id IN ?", entityIDs)
	}
	if filters.TimeRange != nil {
		q = q.Where("updated_at BETWEEN ? AND ?", filters.TimeRange.Start, filters.TimeRange.End)
	}
	var rows []row
	if err := q.Order("distance ASC").Limit(overFetch).Scan(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "semantic candidates")
	}
	out := make([]store.SemanticCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.SemanticCandidate{Memory: toDomainSemantic(r.semanticMemoryRow), CosineDistance: r.Distance})
	}
	return out, nil
}

func toDomainSemantic(r semanticMemoryRow) domain.SemanticMemory {
	factors := map[string]float64{}
	for k, v := range r.ConfidenceFactors {
		if f, ok := v.(float64); ok {
			factors[k] = f
		}
	}
	return domain.SemanticMemory{
		ID:                   r.ID,
		UserID:               r.UserID,
		SubjectEntityID:      r.SubjectEntityID,
		Predicate:            r.Predicate,
		PredicateType:        domain.PredicateType(r.PredicateType),
		ObjectValue:          objectValueFromJSON(r.ObjectValue),
		Confidence:           r.Confidence,
		ConfidenceFactors:    factors,
		ReinforcementCount:   r.ReinforcementCount,
		LastValidatedAt:      r.LastValidatedAt,
		SourceType:           domain.SemanticSourceType(r.SourceType),
		SourceMemoryID:       r.SourceMemoryID,
		ExtractedFromEventID: r.ExtractedFromEventID,
		Status:               domain.MemoryStatus(r.Status),
		SupersededBy:         r.SupersededBy,
		Vector:               r.Vector.Slice(),
		Importance:           r.Importance,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func fromDomainSemantic(m domain.SemanticMemory) semanticMemoryRow {
	factors := JSONMap{}
	for k, v := range m.ConfidenceFactors {
		factors[k] = v
	}
	return semanticMemoryRow{
		ID:                   m.ID,
		UserID:               m.UserID,
		SubjectEntityID:      m.SubjectEntityID,
		Predicate:            m.Predicate,
		PredicateType:        string(m.PredicateType),
		ObjectValue:          objectValueToJSON(m.ObjectValue),
		Confidence:           m.Confidence,
		ConfidenceFactors:    factors,
		ReinforcementCount:   m.ReinforcementCount,
		LastValidatedAt:      m.LastValidatedAt,
		SourceType:           string(m.SourceType),
		SourceMemoryID:       m.SourceMemoryID,
		ExtractedFromEventID: m.ExtractedFromEventID,
		Status:               string(m.Status),
		SupersededBy:         m.SupersededBy,
		Vector:               pgvector.NewVector(m.Vector),
		Importance:           m.Importance,
	}
}

func objectValueToJSON(v domain.ObjectValue) JSONMap {
	return JSONMap{"type": string(v.Type), "value": v.Value, "unit": v.Unit}
}

func objectValueFromJSON(m JSONMap) domain.ObjectValue {
	if m == nil {
		return domain.ObjectValue{}
	}
	unit, _ := m["unit"].(string)
	t, _ := m["type"].(string)
	return domain.ObjectValue{Type: domain.ValueType(t), Value: m["value"], Unit: unit}
}
