package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// CreateTestAgent creates an agent with default values for testing.
func CreateTestAgent(t *testing.T, db *DB, name string) *domain.Agent {
	t.Helper()

	repo := NewAgentRepo(db)
	agent, err := repo.Create(context.Background(), name, "test agent", "hash_"+name)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, agent.ID)

	return agent
}

// CreateTestSubmolt creates a submolt owned by creatorID for testing.
func CreateTestSubmolt(t *testing.T, db *DB, name string, creatorID uuid.UUID) *domain.Submolt {
	t.Helper()

	repo := NewSubmoltRepo(db)
	submolt, err := repo.Create(context.Background(), name, "Test "+name, "", creatorID)
	require.NoError(t, err)

	return submolt
}

// CreateTestPost creates a post for testing.
func CreateTestPost(t *testing.T, db *DB, submoltID, authorID uuid.UUID, title string) *domain.Post {
	t.Helper()

	repo := NewPostRepo(db)
	post, err := repo.Create(context.Background(), submoltID, authorID, title, "test content")
	require.NoError(t, err)

	return post
}

// CreateTestComment creates a comment for testing.
func CreateTestComment(t *testing.T, db *DB, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) *domain.Comment {
	t.Helper()

	repo := NewCommentRepo(db)
	comment, err := repo.Create(context.Background(), postID, authorID, parentID, content)
	require.NoError(t, err)

	return comment
}
