package semantic

import (
	"context"
	"fmt"

	"memorycore/internal/completion"
	"memorycore/internal/domain"
	"memorycore/internal/embedding"
	"memorycore/internal/store"
	apperrors "memorycore/pkg/errors"
)

// ConflictOutcome is the Conflict Detector's verdict on one candidate
// SemanticMemory, implemented by internal/conflict.Detector. Defined here
// (rather than imported from internal/conflict) to avoid a cycle: the
// Conflict Detector only needs the Store, never the Semantic Extractor.
type ConflictOutcome struct {
	Accept       bool
	SupersedesID *int64
	Reason       string
}

// ConflictDetector evaluates a freshly extracted SemanticMemory against
// whatever active rows already exist for the same (user, subject,
// predicate), per §4.C7.
type ConflictDetector interface {
	Evaluate(ctx context.Context, uow store.UnitOfWork, candidate domain.SemanticMemory) (ConflictOutcome, error)
}

// Result is the outcome of one Extract call.
type Result struct {
	EventType domain.EpisodicEventType
	Stored    []domain.SemanticMemory
	Skipped   int
	Warnings  []string
}

// Extractor implements C6 end to end: classify, extract via the Completer,
// normalize, embed, resolve conflicts, persist.
type Extractor struct {
	store     store.UnitOfWork
	completer *completion.Service
	embedder  embedding.Embedder
	detector  ConflictDetector
}

// New builds an Extractor scoped to one transaction's UnitOfWork.
func New(uow store.UnitOfWork, completer *completion.Service, embedder embedding.Embedder, detector ConflictDetector) *Extractor {
	return &Extractor{store: uow, completer: completer, embedder: embedder, detector: detector}
}

// Extract runs the full C6 pipeline for one ChatEvent. A Validation failure
// from the Completer yields zero triples and a warning, not an error, per
// §4.C6's failure model; a Permanent failure is returned as an error so the
// caller can decide whether it fails only the semantic step or the turn
// (it must not fail the turn, per spec, so callers should treat a non-nil
// error here as "skip semantic extraction for this event").
func (e *Extractor) Extract(ctx context.Context, event domain.ChatEvent, entities []completion.ExtractionEntity, extractedFromEventID *int64) (Result, error) {
	eventType := ClassifyEventType(event.Content)
	if !eventType.EligibleForExtraction() {
		return Result{EventType: eventType}, nil
	}

	triples, err := e.completer.ExtractTriples(ctx, completion.TripleExtractionRequest{
		Text:      event.Content,
		Entities:  entities,
		EventType: string(eventType),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return Result{EventType: eventType, Warnings: []string{"triple extraction: " + err.Error()}}, nil
		}
		if apperrors.IsTransient(err) {
			triples, err = e.completer.ExtractTriples(ctx, completion.TripleExtractionRequest{
				Text:      event.Content,
				Entities:  entities,
				EventType: string(eventType),
			})
		}
		if err != nil {
			return Result{EventType: eventType}, apperrors.Wrap(err, "semantic: triple extraction")
		}
	}

	entityNames := make(map[string]string, len(entities))
	for _, en := range entities {
		entityNames[en.EntityID] = en.Name
	}

	result := Result{EventType: eventType}
	for _, t := range triples {
		memory, warning, err := e.buildCandidate(ctx, event.UserID, t, entityNames, extractedFromEventID)
		if err != nil {
			return Result{}, apperrors.Wrap(err, "semantic: build candidate")
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
			result.Skipped++
			continue
		}

		outcome, err := e.detector.Evaluate(ctx, e.store, memory)
		if err != nil {
			return Result{}, apperrors.Wrap(err, "semantic: conflict evaluation")
		}
		if !outcome.Accept {
			result.Skipped++
			if outcome.Reason != "" {
				result.Warnings = append(result.Warnings, outcome.Reason)
			}
			continue
		}

		stored, err := e.store.CreateSemantic(ctx, memory)
		if err != nil {
			return Result{}, apperrors.Wrap(err, "semantic: persist")
		}
		if outcome.SupersedesID != nil {
			if err := e.store.MarkSuperseded(ctx, *outcome.SupersedesID, stored.ID); err != nil {
				return Result{}, apperrors.Wrap(err, "semantic: mark superseded")
			}
		}
		result.Stored = append(result.Stored, stored)
	}
	return result, nil
}

func (e *Extractor) buildCandidate(ctx context.Context, userID string, t completion.ExtractedTriple, entityNames map[string]string, extractedFromEventID *int64) (domain.SemanticMemory, string, error) {
	predicateType := domain.PredicateType(t.PredicateType)
	if err := domain.ValidatePredicateType(predicateType); err != nil {
		return domain.SemanticMemory{}, fmt.Sprintf("semantic: dropped triple with invalid predicate_type %q", t.PredicateType), nil
	}

	object, err := domain.NewObjectValue(domain.ValueType(t.ObjectValue.Type), t.ObjectValue.Value, t.ObjectValue.Unit)
	if err != nil {
		return domain.SemanticMemory{}, "semantic: dropped triple with malformed object_value: " + err.Error(), nil
	}

	confidence := t.Confidence
	if confidence > domain.MaxConfidence {
		confidence = domain.MaxConfidence
	}
	if confidence <= 0 {
		return domain.SemanticMemory{}, "semantic: dropped triple with non-positive confidence", nil
	}

	predicate := normalizePredicate(t.Predicate)

	memory, err := domain.NewSemanticMemory(userID, t.SubjectEntityID, predicate, predicateType, object, confidence, domain.SemanticSourceEpisodic, nil, extractedFromEventID)
	if err != nil {
		return domain.SemanticMemory{}, "semantic: dropped triple: " + err.Error(), nil
	}
	memory.ConfidenceFactors = t.ConfidenceFactors

	subjectName := "the user"
	if t.SubjectEntityID != nil {
		if name, ok := entityNames[*t.SubjectEntityID]; ok {
			subjectName = name
		}
	}
	rendering := fmt.Sprintf("%s %s: %s", subjectName, predicate, renderObjectValue(object.Value, object.Unit))

	vec, err := e.embedder.EmbedOne(ctx, rendering)
	if err != nil {
		return domain.SemanticMemory{}, "", apperrors.Wrap(err, "semantic: embed candidate")
	}
	memory.Vector = vec

	return memory, "", nil
}
