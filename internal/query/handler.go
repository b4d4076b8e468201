package query

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httperr "github.com/aevon-lab/winestats/internal/core/errors"
	"github.com/aevon-lab/winestats/internal/core/metrics"
)

const DefaultAPIKeyHeader = "X-API-Key"

// Handler exposes the Service over HTTP.
type Handler struct {
	svc    *Service
	header string
}

// NewHandler creates a handler reading the API key from header.
func NewHandler(svc *Service, header string) *Handler {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return &Handler{svc: svc, header: header}
}

// RegisterRoutes registers the query routes on the given router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/process_data", h.HandleProcessData)
}

// HandleProcessData handles GET /process_data?qualityquery={high|low}.
func (h *Handler) HandleProcessData(c *gin.Context) {
	// Presence is checked separately so an empty value is an invalid selector, not a missing one.
	quality, ok := c.GetQuery("qualityquery")
	if !ok {
		h.respond(c, "", http.StatusUnprocessableEntity, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingParameter,
			Detail:    "Missing required query parameter: qualityquery",
		})
		return
	}

	body, err := h.svc.Handle(c.Request.Context(), quality, c.GetHeader(h.header))
	if err != nil {
		var upstream *UpstreamError
		switch {
		case errors.Is(err, ErrUnauthorized):
			h.respond(c, quality, http.StatusUnauthorized, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnauthorizedError,
				Detail:    "Invalid or missing API key.",
			})
		case errors.Is(err, ErrInvalidArgument):
			h.respond(c, quality, http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidArgument,
				Detail:    "Invalid quality parameter. Allowed values: high, low",
			})
		case errors.As(err, &upstream):
			slog.Error("[Query] Failed to load artifact", "key", upstream.Key, "error", upstream.Err)
			h.respond(c, quality, http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpUpstreamFailure,
				Detail:    fmt.Sprintf("Error processing file %s: %v", upstream.Key, upstream.Err),
			})
		default:
			slog.Error("[Query] Unexpected error", "error", err)
			h.respond(c, quality, http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Detail:    "Internal server error",
			})
		}
		return
	}

	metrics.QueryRequests.WithLabelValues(selectorLabel(h.svc, quality), strconv.Itoa(http.StatusOK)).Inc()
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handler) respond(c *gin.Context, selector string, code int, body httperr.ErrorResponse) {
	metrics.QueryRequests.WithLabelValues(selectorLabel(h.svc, selector), strconv.Itoa(code)).Inc()
	c.JSON(code, body)
}

// selectorLabel keeps the metric label set bounded.
func selectorLabel(svc *Service, selector string) string {
	if _, ok := svc.ArtifactKey(selector); ok {
		return selector
	}
	return "other"
}
