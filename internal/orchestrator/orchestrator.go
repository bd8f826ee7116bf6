package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"memorycore/internal/completion"
	"memorycore/internal/conflict"
	"memorycore/internal/domain"
	"memorycore/internal/domainaugment"
	"memorycore/internal/embedding"
	"memorycore/internal/mention"
	"memorycore/internal/resolver"
	"memorycore/internal/retrieval"
	"memorycore/internal/semantic"
	"memorycore/internal/store"
	apperrors "memorycore/pkg/errors"
	"memorycore/pkg/observability"
)

// txStore is the subset of Store an Orchestrator needs directly: the
// auto-committing surface (for the always-durable chat event write) plus
// the transaction boundary for everything else. storepg.Store implements
// both.
type txStore interface {
	store.Store
	store.TxRunner
}

// Orchestrator implements C11: it wires C4-C10 together for one turn.
type Orchestrator struct {
	store     txStore
	embedder  embedding.Embedder
	completer *completion.Service

	rcfg      resolver.Config
	detector  *conflict.Detector
	retriever *retrieval.Retriever
	augmenter *domainaugment.Augmenter

	cfg     Config
	metrics *observability.Collector
	tracer  trace.Tracer

	locks    *sessionLocks
	inflight singleflight.Group
}

// New builds an Orchestrator. The per-component configs/collaborators are
// constructed by the caller (cmd/server) from each package's DefaultConfig,
// so each component's defaults stay owned by that component's own package.
func New(
	s txStore,
	embedder embedding.Embedder,
	completer *completion.Service,
	rcfg resolver.Config,
	detector *conflict.Detector,
	retriever *retrieval.Retriever,
	augmenter *domainaugment.Augmenter,
	cfg Config,
	metrics *observability.Collector,
	tracer trace.Tracer,
) *Orchestrator {
	return &Orchestrator{
		store:     s,
		embedder:  embedder,
		completer: completer,
		rcfg:      rcfg,
		detector:  detector,
		retriever: retriever,
		augmenter: augmenter,
		cfg:       cfg,
		metrics:   metrics,
		tracer:    tracer,
		locks:     newSessionLocks(),
	}
}

// turnKey identifies a turn for singleflight collapsing: two concurrent
// calls with the same session, content, and disambiguation selection are
// the same logical turn (a client retry), per §7's "idempotency enforced
// at the event layer" note extended to the whole-turn boundary.
func turnKey(in TurnInput) string {
	sel := ""
	if in.DisambiguationSelection != nil {
		sel = in.DisambiguationSelection.OriginalMention + ">" + in.DisambiguationSelection.SelectedEntityID
	}
	return in.SessionID + "|" + domain.HashContent(in.Message) + "|" + sel
}

// ProcessTurn runs the full C11 sequence for one inbound turn.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	if in.SessionID == "" {
		in.SessionID = uuid.NewString()
	}

	v, err, _ := o.inflight.Do(turnKey(in), func() (any, error) {
		mu := o.locks.lockFor(in.SessionID)
		mu.Lock()
		defer mu.Unlock()
		return o.processTurnLocked(ctx, in)
	})
	if err != nil {
		var res TurnResult
		if v != nil {
			res = v.(TurnResult)
		}
		return res, err
	}
	return v.(TurnResult), nil
}

func (o *Orchestrator) processTurnLocked(ctx context.Context, in TurnInput) (TurnResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TurnDeadline)
	defer cancel()

	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "ProcessTurn")
		defer span.End()
	}

	userEvent, err := domain.NewChatEvent(in.SessionID, in.UserID, domain.RoleUser, in.Message, nil)
	if err != nil {
		return TurnResult{SessionID: in.SessionID}, err
	}
	eventID, _, err := o.store.AppendChatEvent(ctx, userEvent)
	if err != nil {
		return TurnResult{SessionID: in.SessionID}, apperrors.Wrap(err, "orchestrator: append chat event")
	}

	result := TurnResult{SessionID: in.SessionID, EventID: eventID}
	result.Provenance.SourceEventIDs = append(result.Provenance.SourceEventIDs, eventID)

	txErr := o.store.ExecuteInTransaction(ctx, func(uow store.UnitOfWork) error {
		return o.runTurn(ctx, uow, in, userEvent, eventID, &result)
	})

	outcome := "ok"
	switch {
	case ctx.Err() != nil:
		result.TimedOut = true
		outcome = "timeout"
	case txErr != nil:
		outcome = "error"
	case result.DisambiguationRequired:
		outcome = "disambiguation"
	}
	if o.metrics != nil {
		o.metrics.RecordTurn(string(retrieval.StrategyExploratory), outcome, time.Since(start).Seconds())
	}

	if apperrors.IsValidation(txErr) || apperrors.IsBackend(txErr) {
		return result, txErr
	}
	if ctx.Err() != nil {
		return result, nil
	}
	return result, nil
}

// runTurn executes steps 2-9 of §4.C11 inside the write transaction.
// Step 1 (AppendChatEvent) already ran outside it so the chat event is
// durable even if this function returns a Permanent-Backend error and the
// rest of the turn's writes are rolled back.
func (o *Orchestrator) runTurn(ctx context.Context, uow store.UnitOfWork, in TurnInput, userEvent domain.ChatEvent, eventID int64, result *TurnResult) error {
	stage := func(name string, fn func() error) error {
		t0 := time.Now()
		err := fn()
		if o.metrics != nil {
			o.metrics.RecordStage(name, time.Since(t0).Seconds())
		}
		return err
	}

	recentEvents, err := uow.RecentChatEvents(ctx, in.SessionID, o.cfg.RecentChatEventLimit)
	if err != nil {
		return apperrors.Wrap(err, "orchestrator: recent chat events")
	}
	recentMessages := make([]string, 0, len(recentEvents))
	for _, e := range recentEvents {
		recentMessages = append(recentMessages, e.Content)
	}

	// Step 2: mention extraction.
	mentions := mention.Extract(in.Message)

	res := resolver.New(uow, o.completer, o.rcfg)
	convCtx := resolver.ConversationContext{UserID: in.UserID, SessionID: in.SessionID, RecentMessages: recentMessages}

	var extractionEntities []completion.ExtractionEntity
	var canonicalEntities []domain.CanonicalEntity

	// Step 3/4: resolve each mention, applying a pending disambiguation
	// selection (if it matches this mention's text) before resolving.
	for _, m := range mentions {
		if in.DisambiguationSelection != nil && m.Text == in.DisambiguationSelection.OriginalMention {
			if err := stage("disambiguation_apply", func() error {
				alias, err := domain.NewEntityAlias(m.Text, in.DisambiguationSelection.SelectedEntityID,
					domain.AliasSourceUserStated, userIDPtr(in.UserID), o.cfg.AliasSelectionConfidence, nil)
				if err != nil {
					return err
				}
				_, err = uow.UpsertAlias(ctx, alias)
				return err
			}); err != nil {
				return apperrors.Wrap(err, "orchestrator: apply disambiguation selection")
			}
		}

		var (
			rr      resolver.Result
			disam   *resolver.DisambiguationRequired
			stepErr error
		)
		if err := stage("resolve", func() error {
			rr, disam, stepErr = res.Resolve(ctx, m, convCtx)
			return stepErr
		}); err != nil {
			return apperrors.Wrap(err, "orchestrator: resolve mention")
		}

		if disam != nil {
			result.DisambiguationRequired = true
			result.Candidates = disam.Candidates
			return nil // short-circuit: no further writes; alias upserts already made this turn still commit
		}
		if o.metrics != nil {
			o.metrics.RecordResolution(string(rr.Method))
		}
		if !rr.Found {
			continue
		}

		entity, found, err := uow.GetEntityByID(ctx, rr.EntityID)
		if err != nil {
			return apperrors.Wrap(err, "orchestrator: load resolved entity")
		}
		if !found {
			continue
		}

		result.ResolvedEntities = append(result.ResolvedEntities, ResolvedEntity{
			Mention: m.Text, EntityID: entity.ID, CanonicalName: entity.CanonicalName,
			EntityType: string(entity.Type), Confidence: rr.Confidence, Method: rr.Method,
		})
		canonicalEntities = append(canonicalEntities, entity)
		extractionEntities = append(extractionEntities, completion.ExtractionEntity{
			EntityID: entity.ID, Name: entity.CanonicalName, Type: string(entity.Type),
		})
		convCtx.RecentEntities = append([]resolver.RecentEntity{{
			EntityID: entity.ID, CanonicalName: entity.CanonicalName,
			EntityType: string(entity.Type), LastMentionedAt: time.Now().UTC(),
		}}, convCtx.RecentEntities...)
	}

	// Step 5: semantic extraction. A failure here degrades the turn
	// (continue without new triples) rather than aborting it, per §7.
	if err := stage("semantic_extract", func() error {
		extractor := semantic.New(uow, o.completer, o.embedder, o.detector)
		semResult, extractErr := extractor.Extract(ctx, userEvent, extractionEntities, &eventID)
		if extractErr != nil {
			return nil
		}
		for _, m := range semResult.Stored {
			action := "created"
			if m.ReinforcementCount > 1 {
				action = "reinforced"
			}
			result.MemoriesCreatedOrReinforced = append(result.MemoriesCreatedOrReinforced, MemoryAction{MemoryID: m.ID, Action: action, Confidence: m.Confidence})
			result.Provenance.SourceMemoryIDs = append(result.Provenance.SourceMemoryIDs, m.ID)
		}
		return nil
	}); err != nil {
		return err
	}

	// Steps 6 and 7 share no inputs until the retrieval call itself (domain
	// augmentation reads the domain DB off resolved entities, the query
	// embedding call is a pure function of the user's message), so they run
	// side by side the way RAGbox's chat handler overlaps its cache check
	// with embedding generation via errgroup.WithContext.
	var (
		domainFacts []domain.DomainFact
		intent      domainaugment.Intent
		queryVec    []float32
	)
	if err := stage("augment_and_embed", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			facts, in2, augErr := o.augmenter.Augment(gctx, canonicalEntities, in.Message)
			if augErr != nil {
				return nil // domain DB unavailability degrades the turn, does not abort it
			}
			domainFacts, intent = facts, in2
			return nil
		})
		g.Go(func() error {
			vec, embErr := o.embedder.EmbedOne(gctx, in.Message)
			if embErr != nil {
				return nil // embedder failure degrades retrieval rather than aborting the turn
			}
			queryVec = vec
			return nil
		})
		return g.Wait()
	}); err != nil {
		return err
	}
	result.DomainFacts = domainFacts

	// Step 7: retrieval, using the concurrently computed query embedding.
	var retrieved retrieval.Result
	if queryVec != nil {
		if err := stage("retrieve", func() error {
			entityIDs := make([]string, 0, len(canonicalEntities))
			for _, e := range canonicalEntities {
				entityIDs = append(entityIDs, e.ID)
			}
			q := retrieval.Query{Text: in.Message, Embedding: queryVec, EntityIDs: entityIDs, Intent: string(intent), UserID: in.UserID}
			r, retErr := o.retriever.Retrieve(ctx, q, intentToStrategy(intent))
			if retErr != nil {
				return nil
			}
			retrieved = r
			return nil
		}); err != nil {
			return err
		}
	}
	for _, c := range retrieved.Selected {
		result.MemoriesRetrieved = append(result.MemoriesRetrieved, RetrievedMemory{
			MemoryID: c.ID, MemoryType: c.Kind, Content: c.Text, RelevanceScore: c.Score,
			EffectiveConfidence: confidenceOf(c),
		})
		result.Provenance.SourceMemoryIDs = append(result.Provenance.SourceMemoryIDs, c.ID)
	}

	// Step 8/9: assemble ReplyContext and synthesize the reply.
	rc := replyContext{
		query: in.Message, domainFacts: domainFacts, retrievedMemories: retrieved.Selected,
		recentEvents: recentEvents, openConflicts: result.Conflicts, intent: intent, now: time.Now().UTC(),
	}
	var reply string
	if err := stage("reply_synthesis", func() error {
		text, err := o.completer.SynthesizeReply(ctx, buildReplyPrompt(rc))
		if err != nil {
			reply = fallbackReply(rc)
			return nil
		}
		reply = text
		return nil
	}); err != nil {
		return err
	}
	result.Reply = reply

	assistantEvent, err := domain.NewChatEvent(in.SessionID, in.UserID, domain.RoleAssistant, reply, nil)
	if err != nil {
		return apperrors.Wrap(err, "orchestrator: build assistant event")
	}
	assistantID, _, err := uow.AppendChatEvent(ctx, assistantEvent)
	if err != nil {
		return apperrors.Wrap(err, "orchestrator: append assistant event")
	}
	result.Provenance.SourceEventIDs = append(result.Provenance.SourceEventIDs, assistantID)

	return nil
}

func confidenceOf(c retrieval.Candidate) float64 {
	if c.Confidence != nil {
		return *c.Confidence
	}
	return 0
}

func userIDPtr(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
