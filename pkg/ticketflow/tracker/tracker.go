// Package tracker defines the issue-tracker write boundary. The engine
// invokes it only from the ticket flow's terminal create transition;
// review and discussion flows are never handed a client.
package tracker

import (
	"context"
	"errors"
)

// Issue is the payload for ticket creation, assembled from an approved
// draft.
type Issue struct {
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	AcceptanceCriteria []string          `json:"acceptance_criteria,omitempty"`
	Labels             []string          `json:"labels,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Created identifies the ticket the tracker created.
type Created struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Client writes issues to an external tracker.
type Client interface {
	// CreateIssue creates a ticket and returns its identity.
	CreateIssue(ctx context.Context, issue Issue) (Created, error)
}

// ErrMissingTitle indicates a create was attempted without a title.
var ErrMissingTitle = errors.New("issue title is required")
