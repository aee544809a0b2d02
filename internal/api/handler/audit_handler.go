package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// AuditReader reads the append-only transition log for one entity.
type AuditReader interface {
	EventsByEntity(ctx context.Context, entity domain.EntityType, id string) ([]*domain.TransitionEvent, error)
}

// AuditHandler exposes the per-entity audit trail. Routes are admin-only.
type AuditHandler struct {
	reader AuditReader
}

func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

var knownEntities = map[domain.EntityType]struct{}{
	domain.EntityProperty: {},
	domain.EntityBooking:  {},
	domain.EntityLease:    {},
	domain.EntityPayment:  {},
	domain.EntityTicket:   {},
}

// Events handles GET /v1/audit/:entity/:id, oldest event first.
func (h *AuditHandler) Events(c echo.Context) error {
	entity := domain.EntityType(c.Param("entity"))
	if _, ok := knownEntities[entity]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown entity type")
	}

	events, err := h.reader.EventsByEntity(c.Request().Context(), entity, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
