package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore persists comments in Postgres. The parent is stored
// as two nullable columns guarded by a num_nonnulls check constraint.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentColumns = `id::text, content, author_id::text, video_id::text, tweet_id::text, created_at, updated_at`

// parentColumns splits a ParentRef into the (video_id, tweet_id) pair.
func parentColumns(p ParentRef) (videoID, tweetID *string) {
	id := p.ID
	switch p.Kind {
	case ParentVideo:
		return &id, nil
	case ParentTweet:
		return nil, &id
	}
	return nil, nil
}

func parentColumn(p ParentRef) (string, error) {
	switch p.Kind {
	case ParentVideo:
		return "video_id", nil
	case ParentTweet:
		return "tweet_id", nil
	}
	return "", ErrInvalidParent
}

func scanComment(row pgx.Row) (Comment, error) {
	var (
		c                Comment
		videoID, tweetID *string
	)
	if err := row.Scan(&c.ID, &c.Content, &c.AuthorID, &videoID, &tweetID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	switch {
	case videoID != nil:
		c.Parent = VideoRef(*videoID)
	case tweetID != nil:
		c.Parent = TweetRef(*tweetID)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (s *PostgresCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	videoID, tweetID := parentColumns(c.Parent)
	q := `INSERT INTO comments (content, author_id, video_id, tweet_id)
	      VALUES ($1, $2, $3, $4)
	      RETURNING ` + commentColumns
	return scanComment(s.pool.QueryRow(ctx, q, c.Content, c.AuthorID, videoID, tweetID))
}

func (s *PostgresCommentStore) FindByID(ctx context.Context, id string) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	return scanComment(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresCommentStore) UpdateContent(ctx context.Context, id, content string) (Comment, error) {
	q := `UPDATE comments SET content = $1, updated_at = now()
	      WHERE id = $2
	      RETURNING ` + commentColumns
	return scanComment(s.pool.QueryRow(ctx, q, content, id))
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresCommentStore) CountByParent(ctx context.Context, parent ParentRef) (int64, error) {
	col, err := parentColumn(parent)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE `+col+` = $1`, parent.ID).Scan(&n)
	return n, err
}

func (s *PostgresCommentStore) ListByParent(ctx context.Context, parent ParentRef, offset, limit int) ([]Comment, error) {
	col, err := parentColumn(parent)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + commentColumns + `
	      FROM comments
	      WHERE ` + col + ` = $1
	      ORDER BY created_at ASC, id ASC
	      OFFSET $2 LIMIT $3`
	rows, err := s.pool.Query(ctx, q, parent.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
