package storepg

import (
	"context"

	"gorm.io/gorm"

	"memorycore/internal/domain"
	apperrors "memorycore/pkg/errors"
	"memorycore/internal/store"
)

// Store implements store.Store and store.TxRunner against Postgres. A
// single instance is shared process-wide (mirrors teacher's single
// *dynamodb.Client held by ddbRepository); db may be the root connection
// or a transaction handle, which is how ExecuteInTransaction produces a
// scoped store.UnitOfWork.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection to Postgres. Callers are expected to
// have already run schema migrations and enabled the pgvector/pg_trgm
// extensions; this package only issues DML, never DDL.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)
var _ store.TxRunner = (*Store)(nil)
var _ store.UnitOfWork = (*Store)(nil)

// ExecuteInTransaction runs fn against a Store bound to one Postgres
// transaction, matching the "conflict writes commit atomically with the
// triple that caused them" ordering guarantee from §5.
func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// wrapDBErr classifies a gorm/pg error as Backend; callers that care about
// not-found already check gorm.ErrRecordNotFound before reaching here.
func wrapDBErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return apperrors.NewTransientBackend(msg, err)
}

func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func entityTypeOf(id string) domain.EntityType {
	t, _ := domain.ParseEntityType(id)
	return t
}
