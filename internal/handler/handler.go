package handler

import (
	"context"

	"glowing-telegram/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// StateLoader reads the persisted alert state.
type StateLoader interface {
	Load(ctx context.Context) *domain.StateDocument
}

// EventLog exposes the events recorded during recent runs, newest first.
type EventLog interface {
	Recent() []domain.Event
}

// ReportBuilder produces daily-report rows from fresh market data.
type ReportBuilder interface {
	BuildReport(ctx context.Context) []domain.ReportRow
}

type Handler struct {
	tracer  trace.Tracer
	store   StateLoader
	events  EventLog
	reports ReportBuilder
}

func New(tracer trace.Tracer, store StateLoader, events EventLog, reports ReportBuilder) *Handler {
	return &Handler{
		tracer:  tracer,
		store:   store,
		events:  events,
		reports: reports,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/state", h.GetState)
	api.GET("/events/recent", h.GetRecentEvents)
	api.GET("/report", h.GetReport)
}
