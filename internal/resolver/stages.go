package resolver

import (
	"context"
	"fmt"

	"memorycore/internal/completion"
	"memorycore/internal/domain"
	"memorycore/internal/mention"
	apperrors "memorycore/pkg/errors"
	"memorycore/internal/store"
)

// resolveExact is stage 1: canonical-name lookup, confidence 1.0. Store
// errors here are Backend per §4.C5's failure model.
func (r *Resolver) resolveExact(ctx context.Context, m mention.Mention) (Result, bool, error) {
	entity, found, err := r.store.GetEntityByCanonicalName(ctx, m.Text)
	if err != nil {
		return Result{}, false, apperrors.Wrap(err, "resolver: exact lookup")
	}
	if !found {
		return Result{}, false, nil
	}
	return Result{EntityID: entity.ID, Found: true, Confidence: 1.0, Method: MethodExact}, true, nil
}

// resolveAlias is stage 2: (text, user_id) alias lookup, user-specific rows
// ranking above global ones, accepted above AliasAcceptThreshold.
func (r *Resolver) resolveAlias(ctx context.Context, m mention.Mention, convCtx ConversationContext) (Result, bool, error) {
	aliases, err := r.store.GetAliasesByText(ctx, m.Text, convCtx.UserID)
	if err != nil {
		return Result{}, false, apperrors.Wrap(err, "resolver: alias lookup")
	}
	if len(aliases) == 0 || aliases[0].Confidence <= r.cfg.AliasAcceptThreshold {
		return Result{}, false, nil
	}
	best := aliases[0]
	if _, err := r.store.UpsertAlias(ctx, best); err != nil {
		return Result{}, false, apperrors.Wrap(err, "resolver: alias use-count increment")
	}
	return Result{EntityID: best.CanonicalID, Found: true, Confidence: best.Confidence, Method: MethodAlias}, true, nil
}

// resolveFuzzy is stage 3: trigram similarity search over the top 5
// candidates, accepting a clear winner or surfacing DisambiguationRequired.
func (r *Resolver) resolveFuzzy(ctx context.Context, m mention.Mention, convCtx ConversationContext) (Result, *DisambiguationRequired, bool, error) {
	matches, err := r.store.SearchAliasesFuzzy(ctx, m.Text, r.cfg.FuzzyThreshold, 5)
	if err != nil {
		return Result{}, nil, false, apperrors.Wrap(err, "resolver: fuzzy search")
	}
	if len(matches) == 0 {
		return Result{}, nil, false, nil
	}

	s1 := matches[0].Score
	var s2 float64
	if len(matches) >= 2 {
		s2 = matches[1].Score
	}

	accept := false
	switch {
	case len(matches) == 1 && s1 > r.cfg.FuzzySingleAccept:
		accept = true
	case len(matches) >= 2 && s1-s2 > r.cfg.FuzzyAutoAcceptGap && s1 > r.cfg.FuzzyTopAccept:
		accept = true
	}

	if accept {
		top := matches[0]
		alias, err := domain.NewEntityAlias(m.Text, top.EntityID, domain.AliasSourceFuzzy, userIDPtr(convCtx.UserID), top.Score, nil)
		if err != nil {
			return Result{}, nil, false, err
		}
		if _, err := r.store.UpsertAlias(ctx, alias); err != nil {
			return Result{}, nil, false, apperrors.Wrap(err, "resolver: fuzzy alias upsert")
		}
		return Result{EntityID: top.EntityID, Found: true, Confidence: top.Score, Method: MethodFuzzy}, nil, true, nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, mm := range matches {
		name := mm.AliasText
		entityType := ""
		if entity, found, err := r.store.GetEntityByID(ctx, mm.EntityID); err == nil && found {
			name = entity.CanonicalName
			entityType = string(entity.Type)
		}
		candidates = append(candidates, Candidate{EntityID: mm.EntityID, CanonicalName: name, EntityType: entityType, Score: mm.Score})
	}
	sortCandidatesDesc(candidates)
	return Result{}, &DisambiguationRequired{Candidates: candidates}, false, nil
}

// resolveCoreference is stage 4: LLM-assisted pronoun/definite-description
// resolution. Completer failures degrade to method=none rather than
// failing the turn, per §4.C5's failure model.
func (r *Resolver) resolveCoreference(ctx context.Context, m mention.Mention, convCtx ConversationContext) (Result, bool, error) {
	if r.completer == nil || !r.completer.IsAvailable() {
		return Result{}, false, nil
	}
	candidates := make([]completion.CoreferenceCandidate, 0, len(convCtx.RecentEntities))
	for _, e := range convCtx.RecentEntities {
		candidates = append(candidates, completion.CoreferenceCandidate{
			EntityID:        e.EntityID,
			CanonicalName:   e.CanonicalName,
			EntityType:      e.EntityType,
			LastMentionedAt: e.LastMentionedAt,
		})
	}
	resp, err := r.completer.ResolveCoreference(ctx, completion.CoreferenceRequest{
		Mention:        m.Text,
		Candidates:     candidates,
		RecentMessages: convCtx.RecentMessages,
	})
	if err != nil {
		return Result{}, false, nil
	}
	if resp.EntityID == nil || resp.Confidence <= r.cfg.CoreferenceAccept {
		return Result{}, false, nil
	}
	alias, err := domain.NewEntityAlias(m.Text, *resp.EntityID, domain.AliasSourceCoreference, userIDPtr(convCtx.UserID), resp.Confidence, map[string]any{"reasoning": resp.Reasoning})
	if err != nil {
		return Result{}, false, nil
	}
	if _, err := r.store.UpsertAlias(ctx, alias); err != nil {
		return Result{}, false, apperrors.Wrap(err, "resolver: coreference alias upsert")
	}
	return Result{EntityID: *resp.EntityID, Found: true, Confidence: resp.Confidence, Method: MethodCoreference}, true, nil
}

// resolveDomainDB is stage 5: a parameterized search against the read-only
// domain namespace, lazily minting a CanonicalEntity on a hit.
func (r *Resolver) resolveDomainDB(ctx context.Context, m mention.Mention, convCtx ConversationContext) (Result, bool, error) {
	for _, lookup := range r.cfg.DomainLookupTables {
		rows, err := r.store.DomainQuery(ctx, lookup.Table,
			[]store.EntityFilter{{Column: lookup.NameColumn, Op: "ilike", Value: "%" + m.Text + "%"}},
			[]string{lookup.IDColumn, lookup.NameColumn}, 5)
		if err != nil {
			return Result{}, false, apperrors.Wrap(err, "resolver: domain db lookup")
		}
		if len(rows) == 0 {
			continue
		}
		row := rows[0]
		sourceID := fmt.Sprint(row[lookup.IDColumn])
		name := fmt.Sprint(row[lookup.NameColumn])
		entityID := domain.NewEntityID(lookup.EntityType, sourceID)

		if _, found, err := r.store.GetEntityByID(ctx, entityID); err == nil && !found {
			entity, err := domain.NewCanonicalEntity(entityID, lookup.EntityType, name,
				domain.ExternalRef{SourceTable: lookup.Table, SourceID: sourceID}, nil)
			if err != nil {
				return Result{}, false, err
			}
			if _, err := r.store.CreateEntity(ctx, entity); err != nil {
				return Result{}, false, apperrors.Wrap(err, "resolver: lazy entity creation")
			}
		} else if err != nil {
			return Result{}, false, apperrors.Wrap(err, "resolver: entity existence check")
		}

		alias, err := domain.NewEntityAlias(m.Text, entityID, domain.AliasSourceDomainDB, userIDPtr(convCtx.UserID), 0.85, nil)
		if err != nil {
			return Result{}, false, err
		}
		if _, err := r.store.UpsertAlias(ctx, alias); err != nil {
			return Result{}, false, apperrors.Wrap(err, "resolver: domain_db alias upsert")
		}
		return Result{EntityID: entityID, Found: true, Confidence: 0.85, Method: MethodDomainDB}, true, nil
	}
	return Result{}, false, nil
}

func userIDPtr(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
