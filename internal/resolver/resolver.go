// Package resolver implements the Entity Resolver (C5): a five-stage
// short-circuit pipeline (exact, alias, fuzzy, coreference, domain_db)
// returning a typed result or the non-error DisambiguationRequired signal,
// grounded on teacher's layered service-method style
// (internal/service/memory/service.go) plus the Design Notes' instruction
// to replace an AmbiguousEntityError exception with a value return.
package resolver

import (
	"context"
	"sort"
	"time"

	"memorycore/internal/completion"
	"memorycore/internal/domain"
	"memorycore/internal/mention"
	"memorycore/internal/store"
)

// Method names the resolution stage that produced a Result.
type Method string

const (
	MethodExact       Method = "exact"
	MethodAlias       Method = "alias"
	MethodFuzzy       Method = "fuzzy"
	MethodCoreference Method = "coreference"
	MethodDomainDB    Method = "domain_db"
	MethodNone        Method = "none"
)

// Config holds the resolver's tunable thresholds (SystemConfig-backed).
type Config struct {
	AliasAcceptThreshold float64 // default 0.85
	FuzzyThreshold       float64 // default 0.7
	FuzzyAutoAcceptGap   float64 // default 0.15
	FuzzySingleAccept    float64 // default 0.85
	FuzzyTopAccept       float64 // default 0.75
	CoreferenceAccept    float64 // default 0.7
	// DomainLookupTables maps a type hint (e.g. "customer") to the domain
	// table and name column to search for a lazy-creation match.
	DomainLookupTables map[string]DomainLookup
}

// DomainLookup names the domain table/columns the domain_db stage searches
// for a given inferred type hint.
type DomainLookup struct {
	Table      string
	IDColumn   string
	NameColumn string
	EntityType domain.EntityType
}

// DefaultConfig returns the defaults named in spec §6's configuration table.
func DefaultConfig() Config {
	return Config{
		AliasAcceptThreshold: 0.85,
		FuzzyThreshold:       0.7,
		FuzzyAutoAcceptGap:   0.15,
		FuzzySingleAccept:    0.85,
		FuzzyTopAccept:       0.75,
		CoreferenceAccept:    0.7,
	}
}

// RecentEntity is one entity from ConversationContext.RecentEntities,
// ordered most-recently-mentioned first before it reaches the resolver.
type RecentEntity struct {
	EntityID        string
	CanonicalName   string
	EntityType      string
	LastMentionedAt time.Time
}

// ConversationContext carries the turn-scoped state the resolver needs.
type ConversationContext struct {
	UserID         string
	SessionID      string
	RecentMessages []string
	RecentEntities []RecentEntity
}

// Result is the resolver's success output.
type Result struct {
	EntityID  string
	Found     bool
	Confidence float64
	Method    Method
	Reasoning string
}

// Candidate is one option offered back when disambiguation is required.
type Candidate struct {
	EntityID      string
	CanonicalName string
	EntityType    string
	Score         float64
}

// DisambiguationRequired is returned (not as an error) when the fuzzy stage
// cannot confidently pick one candidate.
type DisambiguationRequired struct {
	Candidates []Candidate
}

// Resolver runs the five-stage pipeline against a Store and a Completer.
type Resolver struct {
	store      store.UnitOfWork
	completer  *completion.Service
	cfg        Config
}

// New builds a Resolver scoped to one transaction's UnitOfWork.
func New(uow store.UnitOfWork, completer *completion.Service, cfg Config) *Resolver {
	return &Resolver{store: uow, completer: completer, cfg: cfg}
}

// Resolve runs the pipeline for one mention. Exactly one of (Result,
// *DisambiguationRequired) is non-zero when err is nil.
func (r *Resolver) Resolve(ctx context.Context, m mention.Mention, convCtx ConversationContext) (Result, *DisambiguationRequired, error) {
	if res, ok, err := r.resolveExact(ctx, m); err != nil {
		return Result{}, nil, err
	} else if ok {
		return res, nil, nil
	}

	if res, ok, err := r.resolveAlias(ctx, m, convCtx); err != nil {
		return Result{}, nil, err
	} else if ok {
		return res, nil, nil
	}

	if res, disambig, ok, err := r.resolveFuzzy(ctx, m, convCtx); err != nil {
		return Result{}, nil, err
	} else if disambig != nil {
		return Result{}, disambig, nil
	} else if ok {
		return res, nil, nil
	}

	if m.IsCoreferenceCandidate && len(convCtx.RecentEntities) > 0 {
		res, ok, err := r.resolveCoreference(ctx, m, convCtx)
		if err != nil {
			return Result{}, nil, err
		}
		if ok {
			return res, nil, nil
		}
		return Result{Found: false, Method: MethodNone}, nil, nil
	}

	res, ok, err := r.resolveDomainDB(ctx, m, convCtx)
	if err != nil {
		return Result{}, nil, err
	}
	if ok {
		return res, nil, nil
	}

	return Result{Found: false, Method: MethodNone}, nil, nil
}

func sortCandidatesDesc(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Score > c[j].Score })
}
