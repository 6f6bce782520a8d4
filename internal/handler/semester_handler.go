package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/models"
	"github.com/noah-isme/lapanclass-api/internal/service"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

// SemesterHandler manages semester spans per class level.
type SemesterHandler struct {
	semesters *service.SemesterService
	location  *time.Location
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(semesters *service.SemesterService, location *time.Location) *SemesterHandler {
	if location == nil {
		location = time.UTC
	}
	return &SemesterHandler{semesters: semesters, location: location}
}

// List godoc
// @Summary List semester configs
// @Tags Semesters
// @Produce json
// @Param class_level query string false "Class level"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	configs, err := h.semesters.List(c.Request.Context(), c.Query("class_level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Current godoc
// @Summary Semester covering a date
// @Tags Semesters
// @Produce json
// @Param class_level query string true "Class level"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/current [get]
func (h *SemesterHandler) Current(c *gin.Context) {
	date := time.Now().In(h.location)
	if c.Query("date") != "" {
		parsed, err := dateQuery(c, "date", h.location)
		if err != nil {
			response.Error(c, err)
			return
		}
		date = parsed
	}
	cfg, err := h.semesters.Current(c.Request.Context(), c.Query("class_level"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Create godoc
// @Summary Create semester config
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body models.SemesterConfigRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req models.SemesterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid semester payload"))
		return
	}
	cfg, err := h.semesters.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// Update godoc
// @Summary Update semester config
// @Tags Semesters
// @Accept json
// @Produce json
// @Param id path string true "Semester config ID"
// @Param payload body models.SemesterConfigRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [put]
func (h *SemesterHandler) Update(c *gin.Context) {
	var req models.SemesterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid semester payload"))
		return
	}
	cfg, err := h.semesters.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Delete godoc
// @Summary Delete semester config
// @Tags Semesters
// @Param id path string true "Semester config ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	if err := h.semesters.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
