package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// memStore backs handler tests with an in-memory implementation of every
// repository interface, including the vote store semantics the ledger needs.
type memStore struct {
	mu       sync.Mutex
	agents   map[uuid.UUID]*domain.Agent
	hashes   map[string]uuid.UUID
	submolts map[uuid.UUID]*domain.Submolt
	posts    map[uuid.UUID]*domain.Post
	comments map[uuid.UUID]*domain.Comment
	votes    map[voteKey]domain.VoteValue
}

type voteKey struct {
	agentID    uuid.UUID
	targetID   uuid.UUID
	targetType domain.TargetType
}

func newMemStore() *memStore {
	return &memStore{
		agents:   map[uuid.UUID]*domain.Agent{},
		hashes:   map[string]uuid.UUID{},
		submolts: map[uuid.UUID]*domain.Submolt{},
		posts:    map[uuid.UUID]*domain.Post{},
		comments: map[uuid.UUID]*domain.Comment{},
		votes:    map[voteKey]domain.VoteValue{},
	}
}

func (m *memStore) CreateAgent(_ context.Context, name, description, apiKeyHash string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if a.Name == name {
			return nil, domain.ErrNameTaken
		}
	}
	agent := &domain.Agent{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now()}
	m.agents[agent.ID] = agent
	m.hashes[apiKeyHash] = agent.ID
	return agent, nil
}

func (m *memStore) GetAgentByID(_ context.Context, id uuid.UUID) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.agents[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.ErrAgentNotFound
}

func (m *memStore) GetAgentByName(_ context.Context, name string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if a.Name == name {
			copied := *a
			return &copied, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (m *memStore) GetAgentByAPIKeyHash(_ context.Context, hash string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.hashes[hash]; ok {
		copied := *m.agents[id]
		return &copied, nil
	}
	return nil, domain.ErrInvalidAPIKey
}

func (m *memStore) CreateSubmolt(_ context.Context, name, title, description string, creatorID uuid.UUID) (*domain.Submolt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submolts {
		if s.Name == name {
			return nil, domain.ErrNameTaken
		}
	}
	submolt := &domain.Submolt{ID: uuid.New(), Name: name, Title: title, Description: description, CreatorID: creatorID, CreatedAt: time.Now()}
	m.submolts[submolt.ID] = submolt
	return submolt, nil
}

func (m *memStore) GetSubmoltByName(_ context.Context, name string) (*domain.Submolt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submolts {
		if s.Name == name {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.ErrSubmoltNotFound
}

func (m *memStore) ListSubmolts(_ context.Context) ([]domain.Submolt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Submolt, 0, len(m.submolts))
	for _, s := range m.submolts {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memStore) Subscribe(_ context.Context, submoltID, agentID uuid.UUID) error {
	return nil
}

func (m *memStore) CreatePost(_ context.Context, submoltID, authorID uuid.UUID, title, content string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post := &domain.Post{ID: uuid.New(), SubmoltID: submoltID, AuthorID: authorID, Title: title, Content: content, CreatedAt: time.Now()}
	if s, ok := m.submolts[submoltID]; ok {
		post.SubmoltName = s.Name
	}
	if a, ok := m.agents[authorID]; ok {
		post.AuthorName = a.Name
	}
	m.posts[post.ID] = post
	return post, nil
}

func (m *memStore) GetPostByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrPostNotFound
}

func (m *memStore) ListPosts(_ context.Context, _ domain.FeedSort, limit, offset int) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, *p)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeletePost(_ context.Context, id, authorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	if p.AuthorID != authorID {
		return domain.ErrNotAuthor
	}
	delete(m.posts, id)
	return nil
}

func (m *memStore) CreateComment(_ context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return nil, domain.ErrPostNotFound
	}
	depth := 0
	if parentID != nil {
		parent, ok := m.comments[*parentID]
		if !ok || parent.PostID != postID {
			return nil, domain.ErrCommentNotFound
		}
		depth = parent.Depth + 1
		if depth > domain.MaxCommentDepth {
			return nil, domain.ErrMaxDepthExceeded
		}
	}
	comment := &domain.Comment{ID: uuid.New(), PostID: postID, AuthorID: authorID, ParentID: parentID, Depth: depth, Content: content, CreatedAt: time.Now()}
	if a, ok := m.agents[authorID]; ok {
		comment.AuthorName = a.Name
	}
	m.comments[comment.ID] = comment
	m.posts[postID].CommentCount++
	return comment, nil
}

func (m *memStore) GetCommentByID(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.comments[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (m *memStore) ListCommentsByPost(_ context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) FindTarget(_ context.Context, id uuid.UUID, targetType domain.TargetType) (*domain.VoteTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch targetType {
	case domain.TargetPost:
		if p, ok := m.posts[id]; ok {
			return &domain.VoteTarget{ID: p.ID, AuthorID: p.AuthorID}, nil
		}
	case domain.TargetComment:
		if c, ok := m.comments[id]; ok {
			return &domain.VoteTarget{ID: c.ID, AuthorID: c.AuthorID}, nil
		}
	}
	return nil, domain.ErrTargetNotFound
}

func (m *memStore) Apply(_ context.Context, agentID, targetID uuid.UUID, targetType domain.TargetType, authorID uuid.UUID,
	decide func(current *domain.VoteValue) domain.VoteTransition) (domain.VoteTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := voteKey{agentID: agentID, targetID: targetID, targetType: targetType}
	var current *domain.VoteValue
	if v, ok := m.votes[key]; ok {
		current = &v
	}

	applied := decide(current)

	if applied.NewValue == nil {
		delete(m.votes, key)
	} else {
		m.votes[key] = *applied.NewValue
	}

	switch targetType {
	case domain.TargetPost:
		if p, ok := m.posts[targetID]; ok {
			p.Score += applied.ScoreDelta
		}
	case domain.TargetComment:
		if c, ok := m.comments[targetID]; ok {
			c.Score += applied.ScoreDelta
			c.Upvotes += applied.UpvoteDelta
			c.Downvotes += applied.DownvoteDelta
		}
	}
	if a, ok := m.agents[authorID]; ok {
		a.Karma += applied.KarmaDelta
	}
	return applied, nil
}

func (m *memStore) GetVotes(_ context.Context, agentID uuid.UUID, targetType domain.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]domain.VoteValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]domain.VoteValue{}
	for _, id := range targetIDs {
		if v, ok := m.votes[voteKey{agentID: agentID, targetID: id, targetType: targetType}]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Adapter types expose the repository interfaces, which share method names.

type memAgents struct{ *memStore }

func (m memAgents) Create(ctx context.Context, name, description, apiKeyHash string) (*domain.Agent, error) {
	return m.CreateAgent(ctx, name, description, apiKeyHash)
}
func (m memAgents) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	return m.GetAgentByID(ctx, id)
}
func (m memAgents) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	return m.GetAgentByName(ctx, name)
}
func (m memAgents) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Agent, error) {
	return m.GetAgentByAPIKeyHash(ctx, hash)
}

type memPosts struct{ *memStore }

func (m memPosts) Create(ctx context.Context, submoltID, authorID uuid.UUID, title, content string) (*domain.Post, error) {
	return m.CreatePost(ctx, submoltID, authorID, title, content)
}
func (m memPosts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return m.GetPostByID(ctx, id)
}
func (m memPosts) List(ctx context.Context, sort domain.FeedSort, limit, offset int) ([]domain.Post, error) {
	return m.ListPosts(ctx, sort, limit, offset)
}
func (m memPosts) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	return m.DeletePost(ctx, id, authorID)
}

type memComments struct{ *memStore }

func (m memComments) Create(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	return m.CreateComment(ctx, postID, authorID, parentID, content)
}
func (m memComments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	return m.GetCommentByID(ctx, id)
}
func (m memComments) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	return m.ListCommentsByPost(ctx, postID)
}

type memSubmolts struct{ *memStore }

func (m memSubmolts) Create(ctx context.Context, name, title, description string, creatorID uuid.UUID) (*domain.Submolt, error) {
	return m.CreateSubmolt(ctx, name, title, description, creatorID)
}
func (m memSubmolts) GetByName(ctx context.Context, name string) (*domain.Submolt, error) {
	return m.GetSubmoltByName(ctx, name)
}
func (m memSubmolts) List(ctx context.Context) ([]domain.Submolt, error) {
	return m.ListSubmolts(ctx)
}
