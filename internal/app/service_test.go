package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romejiang/moltbook-api/internal/crypto"
	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

type fakeAgents struct {
	mu      sync.Mutex
	byName  map[string]*domain.Agent
	byHash  map[string]*domain.Agent
	created int
}

func newFakeAgents() *fakeAgents {
	return &fakeAgents{byName: map[string]*domain.Agent{}, byHash: map[string]*domain.Agent{}}
}

func (f *fakeAgents) Create(_ context.Context, name, description, apiKeyHash string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[name]; ok {
		return nil, domain.ErrNameTaken
	}
	agent := &domain.Agent{ID: uuid.New(), Name: name, Description: description, CreatedAt: time.Now()}
	f.byName[name] = agent
	f.byHash[apiKeyHash] = agent
	f.created++
	return agent, nil
}

func (f *fakeAgents) GetByID(_ context.Context, id uuid.UUID) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byName {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (f *fakeAgents) GetByName(_ context.Context, name string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byName[name]; ok {
		return a, nil
	}
	return nil, domain.ErrAgentNotFound
}

func (f *fakeAgents) GetByAPIKeyHash(_ context.Context, hash string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byHash[hash]; ok {
		return a, nil
	}
	return nil, domain.ErrInvalidAPIKey
}

type fakePosts struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*domain.Post
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[uuid.UUID]*domain.Post{}}
}

func (f *fakePosts) Create(_ context.Context, submoltID, authorID uuid.UUID, title, content string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Post{ID: uuid.New(), SubmoltID: submoltID, AuthorID: authorID, Title: title, Content: content, CreatedAt: time.Now()}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePosts) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPostNotFound
}

func (f *fakePosts) List(_ context.Context, _ domain.FeedSort, limit, offset int) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Post
	for _, p := range f.posts {
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

func (f *fakePosts) Delete(_ context.Context, id, authorID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	if p.AuthorID != authorID {
		return domain.ErrNotAuthor
	}
	delete(f.posts, id)
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[uuid.UUID]*domain.Comment
	lists    int
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: map[uuid.UUID]*domain.Comment{}}
}

func (f *fakeComments) Create(_ context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	depth := 0
	if parentID != nil {
		parent, ok := f.comments[*parentID]
		if !ok {
			return nil, domain.ErrCommentNotFound
		}
		depth = parent.Depth + 1
		if depth > domain.MaxCommentDepth {
			return nil, domain.ErrMaxDepthExceeded
		}
	}
	c := &domain.Comment{ID: uuid.New(), PostID: postID, AuthorID: authorID, ParentID: parentID, Depth: depth, Content: content, CreatedAt: time.Now()}
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakeComments) GetByID(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.comments[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (f *fakeComments) ListByPost(_ context.Context, postID uuid.UUID) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []domain.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeSubmolts struct {
	mu       sync.Mutex
	submolts map[string]*domain.Submolt
	subs     map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeSubmolts() *fakeSubmolts {
	return &fakeSubmolts{submolts: map[string]*domain.Submolt{}, subs: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (f *fakeSubmolts) Create(_ context.Context, name, title, description string, creatorID uuid.UUID) (*domain.Submolt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.submolts[name]; ok {
		return nil, domain.ErrNameTaken
	}
	s := &domain.Submolt{ID: uuid.New(), Name: name, Title: title, Description: description, CreatorID: creatorID, CreatedAt: time.Now()}
	f.submolts[name] = s
	return s, nil
}

func (f *fakeSubmolts) GetByName(_ context.Context, name string) (*domain.Submolt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.submolts[name]; ok {
		return s, nil
	}
	return nil, domain.ErrSubmoltNotFound
}

func (f *fakeSubmolts) List(_ context.Context) ([]domain.Submolt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Submolt
	for _, s := range f.submolts {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSubmolts) Subscribe(_ context.Context, submoltID, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[submoltID] == nil {
		f.subs[submoltID] = map[uuid.UUID]bool{}
	}
	f.subs[submoltID][agentID] = true
	return nil
}

type fakeLedger struct {
	mu    sync.Mutex
	votes map[string]domain.VoteValue
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{votes: map[string]domain.VoteValue{}}
}

func (f *fakeLedger) Vote(_ context.Context, targetID uuid.UUID, targetType domain.TargetType, agentID uuid.UUID, direction domain.VoteDirection) (*domain.VoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value := domain.VoteValueUp
	if direction == domain.VoteDown {
		value = domain.VoteValueDown
	}
	f.votes[agentID.String()+":"+targetID.String()+":"+string(targetType)] = value
	return &domain.VoteResult{Action: domain.VoteActionUpvoted, TargetID: targetID, TargetType: targetType, ScoreDelta: int64(value), KarmaDelta: int64(value)}, nil
}

func (f *fakeLedger) GetVotes(_ context.Context, agentID uuid.UUID, targetType domain.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]domain.VoteValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]domain.VoteValue{}
	for _, id := range targetIDs {
		if v, ok := f.votes[agentID.String()+":"+id.String()+":"+string(targetType)]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeCache struct {
	mu           sync.Mutex
	entries      map[string][]byte
	invalidation int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) key(postID uuid.UUID, sort domain.CommentSort) string {
	return postID.String() + ":" + string(sort)
}

func (f *fakeCache) Get(_ context.Context, postID uuid.UUID, sort domain.CommentSort) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.entries[f.key(postID, sort)]
	return payload, ok
}

func (f *fakeCache) Set(_ context.Context, postID uuid.UUID, sort domain.CommentSort, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.key(postID, sort)] = payload
}

func (f *fakeCache) Invalidate(_ context.Context, postID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidation++
	for _, sort := range []domain.CommentSort{domain.CommentSortTop, domain.CommentSortNew, domain.CommentSortControversial} {
		delete(f.entries, f.key(postID, sort))
	}
}

type fixture struct {
	service  *Service
	agents   *fakeAgents
	posts    *fakePosts
	comments *fakeComments
	submolts *fakeSubmolts
	ledger   *fakeLedger
	cache    *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		agents:   newFakeAgents(),
		posts:    newFakePosts(),
		comments: newFakeComments(),
		submolts: newFakeSubmolts(),
		ledger:   newFakeLedger(),
		cache:    newFakeCache(),
	}
	f.service = NewService(f.agents, f.posts, f.comments, f.submolts, f.ledger, f.cache)
	return f
}

func TestRegisterAgent_ReturnsUsableKey(t *testing.T) {
	f := newFixture(t)

	agent, key, err := f.service.RegisterAgent(context.Background(), "crab_bot", "a crab")
	require.NoError(t, err)
	assert.Equal(t, "crab_bot", agent.Name)
	assert.True(t, strings.HasPrefix(key, "moltbook_"))

	// The returned key authenticates as the new agent.
	got, err := f.service.Authenticate(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)

	// Only the hash was handed to storage.
	_, ok := f.agents.byHash[crypto.HashAPIKey(key)]
	assert.True(t, ok)
}

func TestRegisterAgent_RejectsBadNames(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "ab", "has space", "way" + strings.Repeat("y", 40), "emoji🦀"} {
		_, _, err := f.service.RegisterAgent(context.Background(), name, "")
		require.Error(t, err, "name %q", name)

		structured := apperrors.AsStructuredError(err)
		assert.Equal(t, apperrors.TypeValidation, structured.Type)
	}
	assert.Zero(t, f.agents.created)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Authenticate(context.Background(), "moltbook_nope")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	_, err = f.service.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestGetFeed_AnnotatesCallerVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := uuid.New()
	reader := uuid.New()
	p1, _ := f.posts.Create(ctx, uuid.New(), author, "first", "")
	p2, _ := f.posts.Create(ctx, uuid.New(), author, "second", "")

	_, err := f.service.Vote(ctx, p1.ID, domain.TargetPost, reader, domain.VoteUp)
	require.NoError(t, err)

	feed, err := f.service.GetFeed(ctx, domain.FeedSortNew, 0, 0, reader)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	byID := map[uuid.UUID]FeedPost{}
	for _, fp := range feed {
		byID[fp.ID] = fp
	}
	assert.Equal(t, "up", byID[p1.ID].YourVote)
	assert.Empty(t, byID[p2.ID].YourVote)

	// Anonymous feeds carry no annotation.
	feed, err = f.service.GetFeed(ctx, domain.FeedSortNew, 0, 0, uuid.Nil)
	require.NoError(t, err)
	for _, fp := range feed {
		assert.Empty(t, fp.YourVote)
	}
}

func TestGetFeed_ClampsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < MaxFeedLimit+20; i++ {
		_, err := f.posts.Create(ctx, uuid.New(), uuid.New(), "post", "")
		require.NoError(t, err)
	}

	feed, err := f.service.GetFeed(ctx, domain.FeedSortNew, 1000, 0, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, feed, MaxFeedLimit)

	feed, err = f.service.GetFeed(ctx, domain.FeedSortNew, 0, 0, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, feed, DefaultFeedLimit)
}

func TestGetThread_MissingPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetThread(context.Background(), uuid.New(), domain.CommentSortTop, uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestGetThread_AnonymousReadsAreCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, _ := f.posts.Create(ctx, uuid.New(), uuid.New(), "post", "")
	top, err := f.service.CreateComment(ctx, post.ID, uuid.New(), nil, "root")
	require.NoError(t, err)
	_, err = f.service.CreateComment(ctx, post.ID, uuid.New(), &top.ID, "reply")
	require.NoError(t, err)

	listsBefore := f.comments.lists
	nodes, err := f.service.GetThread(ctx, post.ID, domain.CommentSortTop, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Replies, 1)
	assert.Equal(t, f.comments.lists, listsBefore+1)

	// Second read is served from the cache without touching storage.
	nodes, err = f.service.GetThread(ctx, post.ID, domain.CommentSortTop, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "root", nodes[0].Content)
	assert.Equal(t, f.comments.lists, listsBefore+1)

	// A new comment drops the cached thread.
	_, err = f.service.CreateComment(ctx, post.ID, uuid.New(), nil, "another")
	require.NoError(t, err)
	nodes, err = f.service.GetThread(ctx, post.ID, domain.CommentSortTop, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Equal(t, f.comments.lists, listsBefore+2)
}

func TestGetThread_AuthenticatedAnnotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, _ := f.posts.Create(ctx, uuid.New(), uuid.New(), "post", "")
	comment, err := f.service.CreateComment(ctx, post.ID, uuid.New(), nil, "root")
	require.NoError(t, err)

	reader := uuid.New()
	_, err = f.service.Vote(ctx, comment.ID, domain.TargetComment, reader, domain.VoteDown)
	require.NoError(t, err)

	nodes, err := f.service.GetThread(ctx, post.ID, domain.CommentSortTop, reader)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "down", nodes[0].YourVote)

	// The annotated read must not poison the shared cache.
	nodes, err = f.service.GetThread(ctx, post.ID, domain.CommentSortTop, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Empty(t, nodes[0].YourVote)
}

func TestVote_OnCommentInvalidatesThreadCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, _ := f.posts.Create(ctx, uuid.New(), uuid.New(), "post", "")
	comment, err := f.service.CreateComment(ctx, post.ID, uuid.New(), nil, "root")
	require.NoError(t, err)

	_, err = f.service.GetThread(ctx, post.ID, domain.CommentSortTop, uuid.Nil)
	require.NoError(t, err)
	_, cached := f.cache.Get(ctx, post.ID, domain.CommentSortTop)
	require.True(t, cached)

	_, err = f.service.Vote(ctx, comment.ID, domain.TargetComment, uuid.New(), domain.VoteUp)
	require.NoError(t, err)

	_, cached = f.cache.Get(ctx, post.ID, domain.CommentSortTop)
	assert.False(t, cached)
}

func TestCreatePost_UnknownSubmolt(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreatePost(context.Background(), "nowhere", "title", "", uuid.New())
	assert.ErrorIs(t, err, domain.ErrSubmoltNotFound)
}

func TestCreateComment_RejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, _ := f.posts.Create(ctx, uuid.New(), uuid.New(), "post", "")
	_, err := f.service.CreateComment(ctx, post.ID, uuid.New(), nil, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)
}

func TestSubscribe_ResolvesByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	submolt, err := f.service.CreateSubmolt(ctx, "general", "General", "", creator)
	require.NoError(t, err)

	agent := uuid.New()
	require.NoError(t, f.service.Subscribe(ctx, "general", agent))
	require.NoError(t, f.service.Subscribe(ctx, "general", agent))
	assert.True(t, f.submolts.subs[submolt.ID][agent])

	assert.ErrorIs(t, f.service.Subscribe(ctx, "missing", agent), domain.ErrSubmoltNotFound)
}
