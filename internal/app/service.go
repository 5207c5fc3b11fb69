package app

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/romejiang/moltbook-api/internal/crypto"
	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
	"github.com/romejiang/moltbook-api/internal/threads"
)

const (
	maxTitleLength       = 300
	maxContentLength     = 40000
	maxCommentLength     = 10000
	maxDescriptionLength = 500

	// DefaultFeedLimit and MaxFeedLimit bound page sizes for listings.
	DefaultFeedLimit = 25
	MaxFeedLimit     = 100
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// ThreadCache caches rendered comment threads. Implementations may be backed
// by Redis; a nil cache disables caching entirely.
type ThreadCache interface {
	Get(ctx context.Context, postID uuid.UUID, sort domain.CommentSort) ([]byte, bool)
	Set(ctx context.Context, postID uuid.UUID, sort domain.CommentSort, payload []byte)
	Invalidate(ctx context.Context, postID uuid.UUID)
}

// FeedPost is a post annotated with the reading agent's own vote.
type FeedPost struct {
	domain.Post
	YourVote string `json:"your_vote,omitempty"`
}

// Service implements the platform operations on top of the storage layer.
type Service struct {
	agents   domain.AgentRepository
	posts    domain.PostRepository
	comments domain.CommentRepository
	submolts domain.SubmoltRepository
	ledger   domain.VoteLedger
	cache    ThreadCache

	// flight collapses concurrent anonymous reads of the same thread into a
	// single assembly.
	flight singleflight.Group
}

func NewService(
	agents domain.AgentRepository,
	posts domain.PostRepository,
	comments domain.CommentRepository,
	submolts domain.SubmoltRepository,
	ledger domain.VoteLedger,
	cache ThreadCache,
) *Service {
	return &Service{
		agents:   agents,
		posts:    posts,
		comments: comments,
		submolts: submolts,
		ledger:   ledger,
		cache:    cache,
	}
}

// RegisterAgent creates an agent and returns it with its plaintext API key.
// The key is shown exactly once; only its hash is stored.
func (s *Service) RegisterAgent(ctx context.Context, name, description string) (*domain.Agent, string, error) {
	if !nameRe.MatchString(name) {
		return nil, "", apperrors.ValidationError("name must be 3-32 characters of letters, digits, underscore or hyphen").
			WithField("name", name)
	}
	if len(description) > maxDescriptionLength {
		return nil, "", apperrors.ValidationError("description too long")
	}

	key, hash, err := crypto.GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}

	agent, err := s.agents.Create(ctx, name, description, hash)
	if err != nil {
		return nil, "", err
	}
	return agent, key, nil
}

// Authenticate resolves an API key to its agent.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*domain.Agent, error) {
	if apiKey == "" {
		return nil, domain.ErrInvalidAPIKey
	}
	return s.agents.GetByAPIKeyHash(ctx, crypto.HashAPIKey(apiKey))
}

func (s *Service) GetAgent(ctx context.Context, name string) (*domain.Agent, error) {
	return s.agents.GetByName(ctx, name)
}

func (s *Service) CreateSubmolt(ctx context.Context, name, title, description string, creatorID uuid.UUID) (*domain.Submolt, error) {
	if !nameRe.MatchString(name) {
		return nil, apperrors.ValidationError("name must be 3-32 characters of letters, digits, underscore or hyphen").
			WithField("name", name)
	}
	if title == "" || len(title) > maxTitleLength {
		return nil, apperrors.ValidationError("title is required and must be at most 300 characters")
	}
	if len(description) > maxDescriptionLength {
		return nil, apperrors.ValidationError("description too long")
	}
	return s.submolts.Create(ctx, name, title, description, creatorID)
}

func (s *Service) GetSubmolt(ctx context.Context, name string) (*domain.Submolt, error) {
	return s.submolts.GetByName(ctx, name)
}

func (s *Service) ListSubmolts(ctx context.Context) ([]domain.Submolt, error) {
	return s.submolts.List(ctx)
}

// Subscribe adds the agent to the submolt. Subscribing twice is a no-op.
func (s *Service) Subscribe(ctx context.Context, submoltName string, agentID uuid.UUID) error {
	submolt, err := s.submolts.GetByName(ctx, submoltName)
	if err != nil {
		return err
	}
	return s.submolts.Subscribe(ctx, submolt.ID, agentID)
}

func (s *Service) CreatePost(ctx context.Context, submoltName, title, content string, authorID uuid.UUID) (*domain.Post, error) {
	if title == "" || len(title) > maxTitleLength {
		return nil, apperrors.ValidationError("title is required and must be at most 300 characters")
	}
	if len(content) > maxContentLength {
		return nil, apperrors.ValidationError("content too long")
	}

	submolt, err := s.submolts.GetByName(ctx, submoltName)
	if err != nil {
		return nil, err
	}
	return s.posts.Create(ctx, submolt.ID, authorID, title, content)
}

// GetFeed lists posts in the requested order, annotated with the caller's own
// votes when the caller is authenticated.
func (s *Service) GetFeed(ctx context.Context, sort domain.FeedSort, limit, offset int, agentID uuid.UUID) ([]FeedPost, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.List(ctx, sort, limit, offset)
	if err != nil {
		return nil, err
	}

	feed := make([]FeedPost, len(posts))
	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		feed[i] = FeedPost{Post: posts[i]}
		ids[i] = posts[i].ID
	}

	if agentID != uuid.Nil && len(ids) > 0 {
		votes, err := s.ledger.GetVotes(ctx, agentID, domain.TargetPost, ids)
		if err != nil {
			return nil, err
		}
		for i := range feed {
			feed[i].YourVote = voteLabel(votes, feed[i].ID)
		}
	}
	return feed, nil
}

func (s *Service) GetPost(ctx context.Context, id, agentID uuid.UUID) (*FeedPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fp := &FeedPost{Post: *post}
	if agentID != uuid.Nil {
		votes, err := s.ledger.GetVotes(ctx, agentID, domain.TargetPost, []uuid.UUID{id})
		if err != nil {
			return nil, err
		}
		fp.YourVote = voteLabel(votes, id)
	}
	return fp, nil
}

func (s *Service) DeletePost(ctx context.Context, id, authorID uuid.UUID) error {
	if err := s.posts.Delete(ctx, id, authorID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return nil
}

func (s *Service) CreateComment(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	if content == "" || len(content) > maxCommentLength {
		return nil, apperrors.ValidationError("content is required and must be at most 10000 characters")
	}

	comment, err := s.comments.Create(ctx, postID, authorID, parentID, content)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, postID)
	}
	return comment, nil
}

// GetThread returns the post's comments as a sorted tree. Anonymous reads are
// served from the cache when possible and collapsed through singleflight;
// authenticated reads are always assembled fresh because each carries the
// caller's own votes.
func (s *Service) GetThread(ctx context.Context, postID uuid.UUID, sort domain.CommentSort, agentID uuid.UUID) ([]*threads.Node, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	if agentID == uuid.Nil {
		return s.sharedThread(ctx, postID, sort)
	}

	nodes, comments, err := s.assembleThread(ctx, postID, sort)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	votes, err := s.ledger.GetVotes(ctx, agentID, domain.TargetComment, ids)
	if err != nil {
		return nil, err
	}
	annotate(nodes, votes)
	return nodes, nil
}

func (s *Service) sharedThread(ctx context.Context, postID uuid.UUID, sort domain.CommentSort) ([]*threads.Node, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, postID, sort); ok {
			var nodes []*threads.Node
			if err := json.Unmarshal(payload, &nodes); err == nil {
				return nodes, nil
			}
			// Corrupt entry; fall through to a fresh assembly.
			s.cache.Invalidate(ctx, postID)
		}
	}

	key := postID.String() + ":" + string(sort)
	result, err, _ := s.flight.Do(key, func() (any, error) {
		nodes, _, err := s.assembleThread(ctx, postID, sort)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if payload, err := json.Marshal(nodes); err == nil {
				s.cache.Set(ctx, postID, sort, payload)
			}
		}
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*threads.Node), nil
}

func (s *Service) assembleThread(ctx context.Context, postID uuid.UUID, sort domain.CommentSort) ([]*threads.Node, []domain.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	threads.SortForAssembly(comments, sort)
	return threads.Assemble(comments), comments, nil
}

// Vote applies one vote and keeps the thread cache coherent: a comment vote
// changes that comment's score and tallies, so its post's cached thread is
// dropped.
func (s *Service) Vote(ctx context.Context, targetID uuid.UUID, targetType domain.TargetType, agentID uuid.UUID, direction domain.VoteDirection) (*domain.VoteResult, error) {
	result, err := s.ledger.Vote(ctx, targetID, targetType, agentID, direction)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && targetType == domain.TargetComment {
		if comment, err := s.comments.GetByID(ctx, targetID); err == nil {
			s.cache.Invalidate(ctx, comment.PostID)
		}
	}
	return result, nil
}

func voteLabel(votes map[uuid.UUID]domain.VoteValue, id uuid.UUID) string {
	switch votes[id] {
	case domain.VoteValueUp:
		return string(domain.VoteUp)
	case domain.VoteValueDown:
		return string(domain.VoteDown)
	default:
		return ""
	}
}

func annotate(nodes []*threads.Node, votes map[uuid.UUID]domain.VoteValue) {
	for _, node := range nodes {
		node.YourVote = voteLabel(votes, node.ID)
		annotate(node.Replies, votes)
	}
}
