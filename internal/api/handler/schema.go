package handler

import "github.com/zsea1234/ZhiWU-sub000/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// transitionResponse is returned by every lifecycle transition endpoint: the
// state the entity landed in plus the audit events the commit emitted.
type transitionResponse struct {
	State  string                    `json:"state"`
	Events []*domain.TransitionEvent `json:"events"`
}
