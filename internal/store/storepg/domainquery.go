package storepg

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"memorycore/internal/domain"
	apperrors "memorycore/pkg/errors"
	"memorycore/internal/store"
)

// identifierPattern whitelists table/column names: DomainQuery and
// JoinDomain must refuse free-form query text (§4.C1), so every identifier
// that reaches raw SQL is checked against this pattern before use, and
// every value is passed as a bound parameter, never concatenated.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_.]*$`)

func validIdentifier(s string) bool {
	return s != "" && identifierPattern.MatchString(s)
}

func (s *Store) DomainQuery(ctx context.Context, table string, filters []store.EntityFilter, columns []string, limit int) ([]map[string]any, error) {
	if !validIdentifier(table) {
		return nil, apperrors.NewValidation("domain query: invalid table identifier")
	}
	projection := "*"
	if len(columns) > 0 {
		for _, c := range columns {
			if !validIdentifier(c) {
				return nil, apperrors.NewValidation("domain query: invalid column identifier " + c)
			}
		}
		projection = strings.Join(columns, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM domain.%s", projection, table)
	var args []any
	var clauses []string
	for _, f := range filters {
		if !validIdentifier(f.Column) {
			return nil, apperrors.NewValidation("domain query: invalid filter column " + f.Column)
		}
		op, ok := allowedOp(f.Op)
		if !ok {
			return nil, apperrors.NewValidation("domain query: unsupported operator " + f.Op)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", f.Column, op))
		args = append(args, f.Value)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []map[string]any
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "domain query")
	}
	return rows, nil
}

func allowedOp(op string) (string, bool) {
	switch op {
	case "=", "in", ">", "<", ">=", "<=":
		return strings.ToUpper(op), true
	case "ilike":
		return "ILIKE", true
	}
	return "", false
}

// JoinDomain executes one ontology hop: for each parent row, look up the
// join column's value and fetch matching child rows from join.ToTable.
func (s *Store) JoinDomain(ctx context.Context, join domain.JoinSpec, parentRows []map[string]any, limit int) ([]map[string]any, error) {
	if !validIdentifier(join.ToTable) || !validIdentifier(join.On) {
		return nil, apperrors.NewValidation("join domain: invalid join spec identifier")
	}
	keys := make([]any, 0, len(parentRows))
	for _, pr := range parentRows {
		if v, ok := pr[join.On]; ok {
			keys = append(keys, v)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return s.DomainQuery(ctx, join.ToTable, []store.EntityFilter{{Column: join.On, Op: "in", Value: keys}}, nil, limit)
}

func (s *Store) GetOntologyEdges(ctx context.Context, fromType domain.EntityType) ([]domain.DomainOntologyEdge, error) {
	var rows []ontologyEdgeRow
	if err := s.db.WithContext(ctx).Where("from_type = ?", string(fromType)).Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "get ontology edges")
	}
	out := make([]domain.DomainOntologyEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DomainOntologyEdge{
			FromType:     domain.EntityType(r.FromType),
			RelationType: r.RelationType,
			ToType:       domain.EntityType(r.ToType),
			Cardinality:  domain.OntologyCardinality(r.Cardinality),
			Semantics:    r.Semantics,
			Join:         domain.JoinSpec{FromTable: r.FromTable, ToTable: r.ToTable, On: r.JoinOn},
			Constraints:  map[string]any(r.Constraints),
		})
	}
	return out, nil
}
