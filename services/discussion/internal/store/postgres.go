package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

// PostgresStore persists threads, comments and votes in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by Postgres.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const threadColumns = `id, parent_type, parent_id, is_open, closed_by, closed_at, created_at`

const commentColumns = `id, thread_id, creator_id, body, is_deleted, deleter_id, editor_id,
	version, created_at, updated_at, deleted_at`

func scanThread(row pgx.Row) (domain.Thread, error) {
	var t domain.Thread
	err := row.Scan(&t.ID, &t.ParentType, &t.ParentID, &t.IsOpen, &t.ClosedBy, &t.ClosedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Thread{}, ErrNotFound
	}
	return t, err
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.ThreadID, &c.CreatorID, &c.Body, &c.IsDeleted, &c.DeleterID, &c.EditorID,
		&c.Version, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) CreateThread(ctx context.Context, t domain.Thread) (domain.Thread, error) {
	q := `INSERT INTO discussion_threads (id, parent_type, parent_id, is_open)
	      VALUES ($1, $2, $3, $4)
	      RETURNING ` + threadColumns
	out, err := scanThread(s.pool.QueryRow(ctx, q, uuid.New().String(), t.ParentType, t.ParentID, t.IsOpen))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Thread{}, ErrConflict
		}
		return domain.Thread{}, err
	}
	return out, nil
}

func (s *PostgresStore) FindThread(ctx context.Context, id string) (domain.Thread, error) {
	q := `SELECT ` + threadColumns + ` FROM discussion_threads WHERE id = $1`
	return scanThread(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresStore) FindThreadByParent(ctx context.Context, parentType, parentID string) (domain.Thread, error) {
	q := `SELECT ` + threadColumns + ` FROM discussion_threads WHERE parent_type = $1 AND parent_id = $2`
	return scanThread(s.pool.QueryRow(ctx, q, parentType, parentID))
}

func (s *PostgresStore) SaveThread(ctx context.Context, t domain.Thread) error {
	const q = `UPDATE discussion_threads SET is_open = $2, closed_by = $3, closed_at = $4 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, t.ID, t.IsOpen, t.ClosedBy, t.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `INSERT INTO discussion_comments (id, thread_id, creator_id, body, created_at)
	      VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	      RETURNING ` + commentColumns
	var createdAt any
	if !c.CreatedAt.IsZero() {
		createdAt = c.CreatedAt
	}
	out, err := scanComment(tx.QueryRow(ctx, q, uuid.New().String(), c.ThreadID, c.CreatorID, c.Body, createdAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.Comment{}, ErrNotFound
		}
		return domain.Comment{}, err
	}
	out.Votes = c.Votes.Clone()
	if err := writeVotes(ctx, tx, out.ID, out.Votes); err != nil {
		return domain.Comment{}, err
	}
	return out, tx.Commit(ctx)
}

func (s *PostgresStore) FindComment(ctx context.Context, id string) (domain.Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM discussion_comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Comment{}, err
	}
	ledgers, err := s.loadVotes(ctx, []string{c.ID})
	if err != nil {
		return domain.Comment{}, err
	}
	c.Votes = domain.LedgerFrom(ledgers[c.ID])
	return c, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, threadID string) ([]domain.Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM discussion_threads WHERE id = $1)`, threadID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	q := `SELECT ` + commentColumns + `
	      FROM discussion_comments
	      WHERE thread_id = $1
	      ORDER BY created_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, q, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comment{}
	ids := []string{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ledgers, err := s.loadVotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Votes = domain.LedgerFrom(ledgers[out[i].ID])
	}
	return out, nil
}

func (s *PostgresStore) loadVotes(ctx context.Context, commentIDs []string) (map[string][]domain.Vote, error) {
	out := make(map[string][]domain.Vote, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT comment_id, actor_id, direction FROM discussion_comment_votes WHERE comment_id = ANY($1)`,
		commentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var commentID, actorID, dir string
		if err := rows.Scan(&commentID, &actorID, &dir); err != nil {
			return nil, err
		}
		out[commentID] = append(out[commentID], domain.Vote{ActorID: actorID, Direction: domain.Direction(dir)})
	}
	return out, rows.Err()
}

// Persist writes the comment and replaces its votes in one transaction.
// The row is locked and its version compared before anything is written.
func (s *PostgresStore) Persist(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var version int64
	err = tx.QueryRow(ctx, `SELECT version FROM discussion_comments WHERE id = $1 FOR UPDATE`, c.ID).Scan(&version)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Comment{}, ErrNotFound
	case err != nil:
		return domain.Comment{}, err
	}
	if version != c.Version {
		return domain.Comment{}, ErrConflict
	}

	q := `UPDATE discussion_comments
	      SET body = $2, is_deleted = $3, deleter_id = $4, editor_id = $5,
	          updated_at = $6, deleted_at = $7, version = version + 1
	      WHERE id = $1
	      RETURNING ` + commentColumns
	out, err := scanComment(tx.QueryRow(ctx, q, c.ID, c.Body, c.IsDeleted, c.DeleterID, c.EditorID, c.UpdatedAt, c.DeletedAt))
	if err != nil {
		return domain.Comment{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM discussion_comment_votes WHERE comment_id = $1`, c.ID); err != nil {
		return domain.Comment{}, err
	}
	out.Votes = c.Votes.Clone()
	if err := writeVotes(ctx, tx, c.ID, out.Votes); err != nil {
		return domain.Comment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Comment{}, err
	}
	return out, nil
}

func writeVotes(ctx context.Context, tx pgx.Tx, commentID string, ledger *domain.VoteLedger) error {
	entries := ledger.Entries()
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, len(entries))
	for i, v := range entries {
		rows[i] = []any{commentID, v.ActorID, string(v.Direction)}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"discussion_comment_votes"},
		[]string{"comment_id", "actor_id", "direction"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("write votes: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
