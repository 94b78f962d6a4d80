package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"CaseMonitor/internal/domain"
	"CaseMonitor/internal/ports"
)

// PostgresRepository persists processed cases so restarts do not re-judge
// transcripts the watcher has already handled.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.CaseRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// AlreadyProcessed returns a map with case IDs that already exist in storage.
func (r *PostgresRepository) AlreadyProcessed(ctx context.Context, caseIDs []string) (map[string]bool, error) {
	if r.db == nil || len(caseIDs) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := r.builder.
		Select("case_id").
		From("processed_cases").
		Where("case_id = ANY(?)", pq.StringArray(caseIDs)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveProcessed upserts the case outcome snapshot.
func (r *PostgresRepository) SaveProcessed(ctx context.Context, processed domain.ProcessedCase) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("processed_cases").
		Columns("case_id", "verdict", "reason", "outcome").
		Values(processed.CaseID, string(processed.Verdict), processed.Reason, string(processed.Outcome)).
		Suffix(`ON CONFLICT (case_id) DO UPDATE
		        SET verdict = EXCLUDED.verdict,
		            reason = EXCLUDED.reason,
		            outcome = EXCLUDED.outcome,
		            updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed case: %w", err)
	}

	return nil
}
