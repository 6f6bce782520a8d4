package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type cashService interface {
	Record(ctx context.Context, session models.Session, req models.CashTransactionRequest) (*models.CashTransaction, error)
	List(ctx context.Context, session models.Session, classID string, r calendar.Range) ([]models.CashTransaction, error)
	Balance(ctx context.Context, session models.Session, classID string) (*models.CashBalance, error)
	Delete(ctx context.Context, session models.Session, id string) error
}

// CashHandler exposes the class treasury book.
type CashHandler struct {
	service  cashService
	location *time.Location
}

// NewCashHandler constructs CashHandler.
func NewCashHandler(service cashService, location *time.Location) *CashHandler {
	if location == nil {
		location = time.UTC
	}
	return &CashHandler{service: service, location: location}
}

// Record godoc
// @Summary Record a treasury entry
// @Tags Cash
// @Accept json
// @Produce json
// @Param payload body models.CashTransactionRequest true "Entry"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cash [post]
func (h *CashHandler) Record(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.CashTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid cash payload"))
		return
	}
	tx, err := h.service.Record(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// List godoc
// @Summary List treasury entries of a class
// @Tags Cash
// @Produce json
// @Param id path string true "Class ID"
// @Param mode query string false "day, week, month (default) or custom"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/cash [get]
func (h *CashHandler) List(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	_, r, err := rangeQuery(c, h.location, calendar.ModeMonth)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.List(c.Request.Context(), session, c.Param("id"), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, map[string]interface{}{
		"start": r.StartKey(),
		"end":   r.EndKey(),
	})
}

// Balance godoc
// @Summary Treasury balance of a class
// @Tags Cash
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/cash/balance [get]
func (h *CashHandler) Balance(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	balance, err := h.service.Balance(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// Delete godoc
// @Summary Delete a treasury entry
// @Tags Cash
// @Param id path string true "Entry ID"
// @Success 204
// @Router /cash/{id} [delete]
func (h *CashHandler) Delete(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
