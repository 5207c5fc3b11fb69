package domain

import "errors"

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrSubmoltNotFound  = errors.New("submolt not found")
	ErrTargetNotFound   = errors.New("vote target not found")
	ErrNameTaken        = errors.New("name already taken")
	ErrInvalidAPIKey    = errors.New("invalid api key")
	ErrSelfVote         = errors.New("voting on own content is not allowed")
	ErrInvalidTarget    = errors.New("invalid target type")
	ErrInvalidDirection = errors.New("invalid vote direction")
	ErrMaxDepthExceeded = errors.New("comment nesting too deep")
	ErrNotAuthor        = errors.New("caller is not the author")
)
