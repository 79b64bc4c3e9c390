package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/minh-tn/salesorder-core/internal/common"
	"github.com/minh-tn/salesorder-core/internal/order"
)

// Handler exposes the engine over HTTP for the order-entry UI.
type Handler struct {
	Engine   *Engine
	Validate *validator.Validate
}

// Mount registers the engine routes on the router.
func (h Handler) Mount(r chi.Router) {
	r.Post("/orders/resolve", h.Resolve)
	r.Post("/orders/schedule", h.Schedule)
	r.Post("/orders/lines/commit", h.CommitLine)
	r.Post("/orders/lines/remove", h.RemoveLine)
}

type resolveRequest struct {
	Lines   []order.Line  `json:"lines"`
	Context order.Context `json:"context"`
}

type resolveResponse struct {
	Lines       []order.Line `json:"lines"`
	TotalAmount int64        `json:"totalAmount"`
}

// Resolve re-runs the full pricing pass for the submitted line set.
func (h Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !h.decode(w, r, &req, &req.Context) {
		return
	}
	lines, err := h.Engine.ResolveOrder(r.Context(), order.Order{Lines: req.Lines, Context: req.Context})
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, resolveResponse{Lines: lines, TotalAmount: order.TotalAmount(lines)})
}

type scheduleRequest struct {
	Line    order.Line    `json:"line"`
	Context order.Context `json:"context"`
}

// Schedule computes the promised delivery date for a single line.
func (h Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !h.decode(w, r, &req, &req.Context) {
		return
	}
	promised, err := h.Engine.ScheduleDelivery(r.Context(), req.Line, req.Context)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]time.Time{"deliveryDate": promised})
}

type commitRequest struct {
	Lines   []order.Line  `json:"lines"`
	Line    order.Line    `json:"line"`
	Context order.Context `json:"context"`
}

// CommitLine reserves stock for a new line and returns the re-resolved set.
func (h Handler) CommitLine(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !h.decode(w, r, &req, &req.Context) {
		return
	}
	lines, err := h.Engine.CommitLine(r.Context(), order.Order{Lines: req.Lines, Context: req.Context}, req.Line)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, resolveResponse{Lines: lines, TotalAmount: order.TotalAmount(lines)})
}

type removeRequest struct {
	Lines   []order.Line  `json:"lines"`
	Index   int           `json:"index"`
	Context order.Context `json:"context"`
}

// RemoveLine releases the line's reservation and returns the re-resolved set.
func (h Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !h.decode(w, r, &req, &req.Context) {
		return
	}
	lines, err := h.Engine.RemoveLine(r.Context(), order.Order{Lines: req.Lines, Context: req.Context}, req.Index)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, resolveResponse{Lines: lines, TotalAmount: order.TotalAmount(lines)})
}

func (h Handler) decode(w http.ResponseWriter, r *http.Request, dst any, octx *order.Context) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", err.Error())
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(octx); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order context", err.Error())
			return false
		}
	}
	return true
}

// renderError maps engine failures to responses. The engine classifies its
// own taxonomy by wrapping sentinels in coded AppErrors; anything unclassified
// is an internal error.
func renderError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
