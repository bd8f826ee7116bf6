package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"memorycore/internal/orchestrator"
	apperrors "memorycore/pkg/errors"
)

var validate = validator.New()

// turnRequest is §6's wire shape for an inbound turn.
type turnRequest struct {
	UserID                  string                       `json:"user_id" validate:"required"`
	SessionID               string                       `json:"session_id"`
	Message                 string                       `json:"message" validate:"required"`
	DisambiguationSelection *disambiguationSelectionWire `json:"disambiguation_selection"`
}

type disambiguationSelectionWire struct {
	OriginalMention  string `json:"original_mention" validate:"required"`
	SelectedEntityID string `json:"selected_entity_id" validate:"required"`
}

// turnResponse is §6's wire shape for ProcessTurn's result.
type turnResponse struct {
	SessionID                   string                `json:"session_id"`
	EventID                     int64                 `json:"event_id"`
	Reply                       string                `json:"reply"`
	ResolvedEntities            []resolvedEntityWire  `json:"resolved_entities"`
	DisambiguationRequired      bool                  `json:"disambiguation_required"`
	Candidates                  []candidateWire       `json:"candidates"`
	DomainFacts                 []domainFactWire      `json:"domain_facts"`
	MemoriesRetrieved           []retrievedMemoryWire `json:"memories_retrieved"`
	MemoriesCreatedOrReinforced []memoryActionWire    `json:"memories_created_or_reinforced"`
	Conflicts                   []conflictWire        `json:"conflicts"`
	Provenance                  provenanceWire        `json:"provenance"`
	TimedOut                    bool                  `json:"timed_out"`
}

type resolvedEntityWire struct {
	Mention       string  `json:"mention"`
	EntityID      string  `json:"entity_id"`
	CanonicalName string  `json:"canonical_name"`
	EntityType    string  `json:"entity_type"`
	Confidence    float64 `json:"confidence"`
	Method        string  `json:"method"`
}

type candidateWire struct {
	EntityID      string  `json:"entity_id"`
	CanonicalName string  `json:"canonical_name"`
	EntityType    string  `json:"entity_type"`
	Score         float64 `json:"score"`
}

type domainFactWire struct {
	FactType string `json:"fact_type"`
	EntityID string `json:"entity_id"`
	Content  string `json:"content"`
}

type retrievedMemoryWire struct {
	MemoryID            int64   `json:"memory_id"`
	MemoryType          string  `json:"memory_type"`
	Content             string  `json:"content"`
	RelevanceScore      float64 `json:"relevance_score"`
	EffectiveConfidence float64 `json:"effective_confidence"`
}

type memoryActionWire struct {
	MemoryID   int64   `json:"memory_id"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

type conflictWire struct {
	Type               string `json:"type"`
	Subject            string `json:"subject"`
	Predicate          string `json:"predicate"`
	ExistingValue      any    `json:"existing_value"`
	NewValue           any    `json:"new_value"`
	ResolutionStrategy string `json:"resolution_strategy"`
}

type provenanceWire struct {
	SourceMemoryIDs []int64 `json:"source_memory_ids"`
	SourceEventIDs  []int64 `json:"source_event_ids"`
}

// TurnHandler serves POST /v1/turns, translating between §6's JSON wire
// shapes and the orchestrator's TurnInput/TurnResult.
type TurnHandler struct {
	orch *orchestrator.Orchestrator
}

// NewTurnHandler builds a TurnHandler around a ready Orchestrator.
func NewTurnHandler(orch *orchestrator.Orchestrator) *TurnHandler {
	return &TurnHandler{orch: orch}
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	in := orchestrator.TurnInput{UserID: req.UserID, SessionID: req.SessionID, Message: req.Message}
	if req.DisambiguationSelection != nil {
		in.DisambiguationSelection = &orchestrator.DisambiguationSelection{
			OriginalMention:  req.DisambiguationSelection.OriginalMention,
			SelectedEntityID: req.DisambiguationSelection.SelectedEntityID,
		}
	}

	result, err := h.orch.ProcessTurn(r.Context(), in)
	if err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr) && apperrors.IsValidation(err):
			Error(w, http.StatusBadRequest, appErr.Error())
		default:
			Error(w, http.StatusInternalServerError, "failed to process turn")
		}
		return
	}

	Success(w, http.StatusOK, toTurnResponse(result))
}

func toTurnResponse(r orchestrator.TurnResult) turnResponse {
	resp := turnResponse{
		SessionID:              r.SessionID,
		EventID:                r.EventID,
		Reply:                  r.Reply,
		DisambiguationRequired: r.DisambiguationRequired,
		TimedOut:               r.TimedOut,
		Provenance:             provenanceWire{SourceMemoryIDs: r.Provenance.SourceMemoryIDs, SourceEventIDs: r.Provenance.SourceEventIDs},
	}
	for _, e := range r.ResolvedEntities {
		resp.ResolvedEntities = append(resp.ResolvedEntities, resolvedEntityWire{
			Mention: e.Mention, EntityID: e.EntityID, CanonicalName: e.CanonicalName,
			EntityType: e.EntityType, Confidence: e.Confidence, Method: string(e.Method),
		})
	}
	for _, c := range r.Candidates {
		resp.Candidates = append(resp.Candidates, candidateWire{
			EntityID: c.EntityID, CanonicalName: c.CanonicalName, EntityType: c.EntityType, Score: c.Score,
		})
	}
	for _, f := range r.DomainFacts {
		resp.DomainFacts = append(resp.DomainFacts, domainFactWire{FactType: f.FactType, EntityID: f.EntityID, Content: f.Content})
	}
	for _, m := range r.MemoriesRetrieved {
		resp.MemoriesRetrieved = append(resp.MemoriesRetrieved, retrievedMemoryWire{
			MemoryID: m.MemoryID, MemoryType: string(m.MemoryType), Content: m.Content,
			RelevanceScore: m.RelevanceScore, EffectiveConfidence: m.EffectiveConfidence,
		})
	}
	for _, a := range r.MemoriesCreatedOrReinforced {
		resp.MemoriesCreatedOrReinforced = append(resp.MemoriesCreatedOrReinforced, memoryActionWire{
			MemoryID: a.MemoryID, Action: a.Action, Confidence: a.Confidence,
		})
	}
	for _, c := range r.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictWire{
			Type: string(c.Type), Subject: c.Subject, Predicate: c.Predicate,
			ExistingValue: c.ExistingValue, NewValue: c.NewValue, ResolutionStrategy: string(c.ResolutionStrategy),
		})
	}
	return resp
}
