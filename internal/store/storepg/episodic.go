package storepg

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

func (s *Store) CreateEpisodic(ctx context.Context, m domain.EpisodicMemory) (domain.EpisodicMemory, error) {
	mentions := make([]any, 0, len(m.EntityMentions))
	for _, em := range m.EntityMentions {
		spans := make([]any, 0, len(em.Mentions))
		for _, sp := range em.Mentions {
			spans = append(spans, map[string]any{"text": sp.Text, "offset": sp.Offset, "is_coreference": sp.IsCoreference})
		}
		mentions = append(mentions, map[string]any{
			"entity_id": em.EntityID, "name": em.Name, "type": string(em.Type), "mentions": spans,
		})
	}
	row := episodicMemoryRow{
		UserID:         m.UserID,
		SessionID:      m.SessionID,
		Summary:        m.Summary,
		EventType:      string(m.EventType),
		SourceEventIDs: Int64Slice(m.SourceEventIDs),
		EntityMentions: JSONMap{"items": mentions},
		DomainFactsRef: JSONMap(m.DomainFactsRef),
		Importance:     m.Importance,
		Vector:         pgvector.NewVector(m.Vector),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.EpisodicMemory{}, wrapDBErr(err, "create episodic memory")
	}
	out := m
	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	return out, nil
}

func (s *Store) EpisodicCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters store.CandidateFilters, overFetch int) ([]store.EpisodicCandidate, error) {
	type row struct {
		episodicMemoryRow
		Distance float64 `gorm:"column:distance"`
	}
	q := s.db.WithContext(ctx).Table("app.episodic_memories").
		Select("app.episodic_memories.*, vector <=> ? AS distance", pgvector.NewVector(queryVec)).
		Where("user_id = ? AND vector IS NOT NULL", userID)
	if filters.TimeRange != nil {
		q = q.Where("created_at BETWEEN ? AND ?", filters.TimeRange.Start, filters.TimeRange.End)
	}
	var rows []row
	if err := q.Order("distance ASC").Limit(overFetch).Scan(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "episodic candidates")
	}
	out := make([]store.EpisodicCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.EpisodicCandidate{Memory: toDomainEpisodic(r.episodicMemoryRow), CosineDistance: r.Distance})
	}
	return out, nil
}

func toDomainEpisodic(r episodicMemoryRow) domain.EpisodicMemory {
	var mentions []domain.InlineEntityMention
	if items, ok := r.EntityMentions["items"].([]any); ok {
		for _, it := range items {
			mm, ok := it.(map[string]any)
			if !ok {
				continue
			}
			em := domain.InlineEntityMention{
				EntityID: stringField(mm, "entity_id"),
				Name:     stringField(mm, "name"),
				Type:     domain.EntityType(stringField(mm, "type")),
			}
			if spans, ok := mm["mentions"].([]any); ok {
				for _, sp := range spans {
					spm, ok := sp.(map[string]any)
					if !ok {
						continue
					}
					offset, _ := spm["offset"].(float64)
					isCoref, _ := spm["is_coreference"].(bool)
					em.Mentions = append(em.Mentions, domain.EntityMentionSpan{
						Text: stringField(spm, "text"), Offset: int(offset), IsCoreference: isCoref,
					})
				}
			}
			mentions = append(mentions, em)
		}
	}
	return domain.EpisodicMemory{
		ID:             r.ID,
		UserID:         r.UserID,
		SessionID:      r.SessionID,
		Summary:        r.Summary,
		EventType:      domain.EpisodicEventType(r.EventType),
		SourceEventIDs: []int64(r.SourceEventIDs),
		EntityMentions: mentions,
		DomainFactsRef: map[string]any(r.DomainFactsRef),
		Importance:     r.Importance,
		Vector:         r.Vector.Slice(),
		CreatedAt:      r.CreatedAt,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
