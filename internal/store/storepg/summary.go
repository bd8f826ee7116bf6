package storepg

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

func (s *Store) CreateSummary(ctx context.Context, m domain.MemorySummary) (domain.MemorySummary, error) {
	row := memorySummaryRow{
		UserID:               m.UserID,
		ScopeType:            string(m.ScopeType),
		ScopeID:              m.ScopeID,
		SummaryText:          m.SummaryText,
		KeyFacts:             JSONMap(m.KeyFacts),
		SourceItemIDs:        Int64Slice(m.SourceData.ItemIDs),
		SourceStartedAt:      m.SourceData.StartedAt,
		SourceEndedAt:        m.SourceData.EndedAt,
		PredecessorSummaryID: m.PredecessorSummaryID,
		Confidence:           m.Confidence,
		Vector:               pgvector.NewVector(m.Vector),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.MemorySummary{}, wrapDBErr(err, "create memory summary")
	}
	out := m
	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	return out, nil
}

func (s *Store) SummaryCandidates(ctx context.Context, userID string, queryVec []float32, filters store.CandidateFilters, overFetch int) ([]store.SummaryCandidate, error) {
	type row struct {
		memorySummaryRow
		Distance float64 `gorm:"column:distance"`
	}
	q := s.db.WithContext(ctx).Table("app.memory_summaries").
		Select("app.memory_summaries.*, vector <=> ? AS distance", pgvector.NewVector(queryVec)).
		Where("user_id = ? AND vector IS NOT NULL", userID)
	if filters.TimeRange != nil {
		q = q.Where("created_at BETWEEN ? AND ?", filters.TimeRange.Start, filters.TimeRange.End)
	}
	var rows []row
	if err := q.Order("distance ASC").Limit(overFetch).Scan(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "summary candidates")
	}
	out := make([]store.SummaryCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.SummaryCandidate{Memory: toDomainSummary(r.memorySummaryRow), CosineDistance: r.Distance})
	}
	return out, nil
}

func toDomainSummary(r memorySummaryRow) domain.MemorySummary {
	return domain.MemorySummary{
		ID:          r.ID,
		UserID:      r.UserID,
		ScopeType:   domain.SummaryScopeType(r.ScopeType),
		ScopeID:     r.ScopeID,
		SummaryText: r.SummaryText,
		KeyFacts:    map[string]any(r.KeyFacts),
		SourceData: domain.SourceDataRef{
			ItemIDs:   []int64(r.SourceItemIDs),
			StartedAt: r.SourceStartedAt,
			EndedAt:   r.SourceEndedAt,
		},
		PredecessorSummaryID: r.PredecessorSummaryID,
		Confidence:           r.Confidence,
		Vector:               r.Vector.Slice(),
		CreatedAt:            r.CreatedAt,
	}
}
