package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "memorycore/pkg/errors"
)

// Service owns the three prompts named in §4.C3 and their parsing; Provider
// implementations stay dumb text-in/text-out clients, mirroring teacher's
// llm.Service/llm.Provider split.
type Service struct {
	provider Provider
}

// NewService wraps a Provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// IsAvailable reports whether the underlying provider can be called.
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// ResolveCoreference runs prompt 1 (temperature 0.0, json_mode true).
func (s *Service) ResolveCoreference(ctx context.Context, req CoreferenceRequest) (CoreferenceResponse, error) {
	prompt := buildCoreferencePrompt(req)
	result, err := s.provider.Complete(ctx, prompt, Options{Temperature: 0.0, MaxTokens: 200, JSONMode: true})
	if err != nil {
		return CoreferenceResponse{}, err
	}
	var out CoreferenceResponse
	if err := unmarshalJSONResponse(result.Text, &out); err != nil {
		return CoreferenceResponse{}, apperrors.NewValidation("coreference response is not valid JSON: " + err.Error())
	}
	return out, nil
}

// ExtractTriples runs prompt 2 (temperature 0.0, json_mode true).
func (s *Service) ExtractTriples(ctx context.Context, req TripleExtractionRequest) ([]ExtractedTriple, error) {
	prompt := buildTripleExtractionPrompt(req)
	result, err := s.provider.Complete(ctx, prompt, Options{Temperature: 0.0, MaxTokens: 800, JSONMode: true})
	if err != nil {
		return nil, err
	}
	var out []ExtractedTriple
	if err := unmarshalJSONResponse(result.Text, &out); err != nil {
		return nil, apperrors.NewValidation("triple extraction response is not valid JSON: " + err.Error())
	}
	return out, nil
}

// SynthesizeReply runs prompt 3 (temperature ~0.7, json_mode false). The
// prompt text is assembled by the caller (the Turn Orchestrator owns
// ReplyContext shape); this method only applies the fixed sampling options.
func (s *Service) SynthesizeReply(ctx context.Context, prompt string) (string, error) {
	result, err := s.provider.Complete(ctx, prompt, Options{Temperature: 0.7, MaxTokens: 600, JSONMode: false})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func buildCoreferencePrompt(req CoreferenceRequest) string {
	var candidates strings.Builder
	for _, c := range req.Candidates {
		fmt.Fprintf(&candidates, "- {\"entity_id\": %q, \"name\": %q, \"type\": %q, \"last_mentioned\": %q}\n",
			c.EntityID, c.CanonicalName, c.EntityType, c.LastMentionedAt.Format("2006-01-02T15:04:05Z"))
	}
	return fmt.Sprintf(`Resolve the ambiguous mention %q to one of the candidate entities below, using the recent conversation for context. Candidates are ordered most-recently-mentioned first.

Candidates:
%s
Recent messages:
%s

Return JSON: {"entity_id": "<id>|null, "confidence": 0.0-1.0, "reasoning": "..."}`,
		req.Mention, candidates.String(), strings.Join(req.RecentMessages, "\n"))
}

func buildTripleExtractionPrompt(req TripleExtractionRequest) string {
	var entities strings.Builder
	for _, e := range req.Entities {
		fmt.Fprintf(&entities, "- {\"entity_id\": %q, \"name\": %q, \"type\": %q}\n", e.EntityID, e.Name, e.Type)
	}
	return fmt.Sprintf(`Extract subject-predicate-object facts stated in this %s-type message. Pin subjects to the entities listed when the text refers to them; otherwise use null for subject_entity_id (the fact is about the user).

Entities:
%s
Text:
%s

Return a JSON array of triples: [{"subject_entity_id": "<id>|null", "predicate": "snake_case_predicate", "predicate_type": "preference|requirement|observation|policy|attribute", "object_value": {"type": "string|number|bool|enum|object|array", "value": ..., "unit": "optional"}, "confidence": 0.0-0.95, "confidence_factors": {}}]. Return [] if no facts are stated.`,
		req.EventType, entities.String(), req.Text)
}

func unmarshalJSONResponse(text string, out any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	return json.Unmarshal([]byte(text), out)
}
