package storepg

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

func (s *Store) CreateProcedural(ctx context.Context, m domain.ProceduralMemory) (domain.ProceduralMemory, error) {
	row := proceduralMemoryRow{
		UserID:          m.UserID,
		TriggerPattern:  m.TriggerPattern,
		TriggerFeatures: JSONMap(m.TriggerFeatures),
		ActionHeuristic: m.ActionHeuristic,
		ActionStructure: JSONMap(m.ActionStructure),
		ObservedCount:   m.ObservedCount,
		Confidence:      m.Confidence,
		Vector:          pgvector.NewVector(m.Vector),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.ProceduralMemory{}, wrapDBErr(err, "create procedural memory")
	}
	out := m
	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	return out, nil
}

func (s *Store) ProceduralCandidates(ctx context.Context, userID string, queryVec []float32, filters store.CandidateFilters, overFetch int) ([]store.ProceduralCandidate, error) {
	type row struct {
		proceduralMemoryRow
		Distance float64 `gorm:"column:distance"`
	}
	q := s.db.WithContext(ctx).Table("app.procedural_memories").
		Select("app.procedural_memories.*, vector <=> ? AS distance", pgvector.NewVector(queryVec)).
		Where("user_id = ? AND vector IS NOT NULL", userID)
	if filters.TimeRange != nil {
		q = q.Where("created_at BETWEEN ? AND ?", filters.TimeRange.Start, filters.TimeRange.End)
	}
	var rows []row
	if err := q.Order("distance ASC").Limit(overFetch).Scan(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "procedural candidates")
	}
	out := make([]store.ProceduralCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.ProceduralCandidate{Memory: toDomainProcedural(r.proceduralMemoryRow), CosineDistance: r.Distance})
	}
	return out, nil
}

func toDomainProcedural(r proceduralMemoryRow) domain.ProceduralMemory {
	return domain.ProceduralMemory{
		ID:              r.ID,
		UserID:          r.UserID,
		TriggerPattern:  r.TriggerPattern,
		TriggerFeatures: map[string]any(r.TriggerFeatures),
		ActionHeuristic: r.ActionHeuristic,
		ActionStructure: map[string]any(r.ActionStructure),
		ObservedCount:   r.ObservedCount,
		Confidence:      r.Confidence,
		Vector:          r.Vector.Slice(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
