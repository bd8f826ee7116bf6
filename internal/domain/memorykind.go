package domain

// MemoryKind tags which of the four persisted memory tables a row or
// candidate came from. The Retriever treats candidates as a sum type over
// this tag rather than a duck-typed record (per the Design Notes).
type MemoryKind string

const (
	MemoryKindSemantic  MemoryKind = "semantic"
	MemoryKindEpisodic  MemoryKind = "episodic"
	MemoryKindProcedural MemoryKind = "procedural"
	MemoryKindSummary   MemoryKind = "summary"
)

// MemoryStatus is the lifecycle state of a SemanticMemory row. "aging" is
// never stored — it is computed at read time (see internal/lifecycle) — but
// the type is shared so EffectiveStatus can return it alongside the stored
// statuses below.
type MemoryStatus string

const (
	StatusActive     MemoryStatus = "active"
	StatusAging      MemoryStatus = "aging"
	StatusSuperseded MemoryStatus = "superseded"
	StatusInvalidated MemoryStatus = "invalidated"
)

// Retrievable reports whether a status participates in retrieval.
func (s MemoryStatus) Retrievable() bool {
	return s == StatusActive || s == StatusAging
}
