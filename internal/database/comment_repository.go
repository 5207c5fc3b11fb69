package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/romejiang/moltbook-api/internal/domain"
)

const commentColumns = `c.id, c.post_id, c.author_id, a.name, c.parent_id, c.depth,
	c.content, c.score, c.upvotes, c.downvotes, c.created_at`

type CommentRepo struct {
	db *DB
}

func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Create inserts a comment, deriving depth from the parent inside the same
// transaction so a concurrent parent delete cannot produce a dangling depth.
// The post's comment counter moves in the same transaction.
func (r *CommentRepo) Create(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	var created *domain.Comment

	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrPostNotFound
		}

		depth := 0
		if parentID != nil {
			var parentDepth int
			var parentPostID uuid.UUID
			err := tx.QueryRow(ctx, `SELECT depth, post_id FROM comments WHERE id = $1`, *parentID).
				Scan(&parentDepth, &parentPostID)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrCommentNotFound
			}
			if err != nil {
				return err
			}
			if parentPostID != postID {
				return domain.ErrCommentNotFound
			}
			depth = parentDepth + 1
			if depth > domain.MaxCommentDepth {
				return domain.ErrMaxDepthExceeded
			}
		}

		row := tx.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO comments (post_id, author_id, parent_id, depth, content)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING *
			)
			SELECT `+commentColumns+`
			FROM inserted c
			JOIN agents a ON a.id = c.author_id
		`, postID, authorID, parentID, depth, content)

		comment, err := scanComment(row)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`, postID); err != nil {
			return err
		}

		created = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN agents a ON a.id = c.author_id
		WHERE c.id = $1
	`, id)
	comment, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	return comment, err
}

// ListByPost returns every comment of the post in creation order. Presentation
// ordering is a caller concern.
func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN agents a ON a.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.ParentID, &c.Depth,
		&c.Content, &c.Score, &c.Upvotes, &c.Downvotes, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
