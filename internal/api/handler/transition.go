package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/api/metrics"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// transitionJSON renders the outcome of a lifecycle transition and records the
// per-entity counters. Errors pass through to the central error handler.
func transitionJSON(c echo.Context, entity domain.EntityType, transition string, res *ports.TransitionResult, err error) error {
	if err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues(string(entity), errorReason(err)).Inc()
		return err
	}
	metrics.TransitionsTotal.WithLabelValues(string(entity), transition).Inc()
	return c.JSON(http.StatusOK, transitionResponse{State: res.State, Events: res.Events})
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
