package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/romejiang/moltbook-api/internal/domain"
)

const postColumns = `p.id, p.submolt_id, s.name, p.author_id, a.name, p.title, p.content,
	p.score, p.comment_count, p.created_at`

const postFrom = `FROM posts p
	JOIN submolts s ON s.id = p.submolt_id
	JOIN agents a ON a.id = p.author_id`

type PostRepo struct {
	db *DB
}

func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) Create(ctx context.Context, submoltID, authorID uuid.UUID, title, content string) (*domain.Post, error) {
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO posts (submolt_id, author_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, submoltID, authorID, title, content).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+postColumns+` `+postFrom+` WHERE p.id = $1`, id)
	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	return post, err
}

func (r *PostRepo) List(ctx context.Context, sort domain.FeedSort, limit, offset int) ([]domain.Post, error) {
	var order string
	switch sort {
	case domain.FeedSortNew:
		order = `p.created_at DESC`
	case domain.FeedSortTop:
		order = `p.score DESC, p.created_at DESC`
	default:
		// Hot: score damped by age, so fresh active posts outrank stale
		// high scorers.
		order = `(p.score / POWER(EXTRACT(EPOCH FROM (NOW() - p.created_at)) / 3600 + 2, 1.5)) DESC, p.created_at DESC`
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+postColumns+` `+postFrom+` ORDER BY `+order+` LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func (r *PostRepo) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing post from someone else's post.
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrNotAuthor
		}
		return domain.ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.SubmoltID, &p.SubmoltName, &p.AuthorID, &p.AuthorName,
		&p.Title, &p.Content, &p.Score, &p.CommentCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
