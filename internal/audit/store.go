package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists audit events in Postgres.
type Store struct {
	pool   PgxPool
	logger *logging.Logger
}

// NewStore builds a Postgres-backed recorder. Returns nil when no pool is
// configured so callers can treat the store as optional.
func NewStore(pool PgxPool, logger *logging.Logger) *Store {
	if pool == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{pool: pool, logger: logger}
}

var _ Recorder = (*Store)(nil)

// Record inserts one audit row. Insert failures are logged, never surfaced;
// auditing must not fail the webhook path.
func (s *Store) Record(ctx context.Context, category, message string) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO adapter_audit_log (id, category, content, created_at) VALUES ($1, $2, $3, NOW())`,
		uuid.New(), category, message,
	)
	if err != nil {
		s.logger.Error("audit insert failed", "error", err, "category", category)
	}
}
