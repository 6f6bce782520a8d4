package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type leaveService interface {
	SubmitLeave(ctx context.Context, session models.Session, req models.LeaveRequest, proof *models.UploadedFile) (*models.AttendanceRecordDetail, error)
	RecordPartialLeave(ctx context.Context, session models.Session, req models.PartialLeaveRequest) (*models.AttendanceRecordDetail, error)
	ListPending(ctx context.Context, session models.Session, classID string) ([]models.AttendanceRecordDetail, error)
	ApproveLeave(ctx context.Context, session models.Session, id string) (*models.AttendanceRecord, error)
	RejectLeave(ctx context.Context, session models.Session, id string) error
}

// LeaveHandler exposes the sick/excused request workflow.
type LeaveHandler struct {
	service      leaveService
	maxFileBytes int64
}

// NewLeaveHandler constructs LeaveHandler. maxFileBytes bounds how much of an upload is read.
func NewLeaveHandler(service leaveService, maxFileBytes int64) *LeaveHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = 5 * 1024 * 1024
	}
	return &LeaveHandler{service: service, maxFileBytes: maxFileBytes}
}

// Submit godoc
// @Summary Submit a sick or excused request
// @Description Multipart form; the proof file is required
// @Tags Leave
// @Accept multipart/form-data
// @Produce json
// @Param date formData string true "Date (YYYY-MM-DD)"
// @Param status formData string true "S or I"
// @Param note formData string false "Note"
// @Param start_time formData string false "HH:MM"
// @Param end_time formData string false "HH:MM"
// @Param proof formData file true "Proof document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /leave [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.LeaveRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid leave payload"))
		return
	}
	proof, err := h.readProof(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.SubmitLeave(c.Request.Context(), session, req, proof)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Partial godoc
// @Summary Excuse a student for a span of periods
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body models.PartialLeaveRequest true "Periods from..to, 1 to 10"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leave/partial [post]
func (h *LeaveHandler) Partial(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.PartialLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid partial leave payload"))
		return
	}
	record, err := h.service.RecordPartialLeave(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Pending godoc
// @Summary Leave requests waiting for approval
// @Tags Leave
// @Produce json
// @Param class_id query string false "Class, defaults to the session's class"
// @Success 200 {object} response.Envelope
// @Router /leave/pending [get]
func (h *LeaveHandler) Pending(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	records, err := h.service.ListPending(c.Request.Context(), session, c.Query("class_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Approve godoc
// @Summary Approve a leave request
// @Tags Leave
// @Param id path string true "Attendance record ID"
// @Success 200 {object} response.Envelope
// @Router /leave/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	record, err := h.service.ApproveLeave(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject a leave request
// @Description Deletes a pending record and its proof file
// @Tags Leave
// @Param id path string true "Attendance record ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /leave/{id}/reject [post]
func (h *LeaveHandler) Reject(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if err := h.service.RejectLeave(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// readProof loads the uploaded proof; a missing file yields nil so the service reports it.
func (h *LeaveHandler) readProof(c *gin.Context) (*models.UploadedFile, error) {
	header, err := c.FormFile("proof")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, appErrors.Validation(err, "invalid proof upload")
	}
	if header.Size > h.maxFileBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("proof file exceeds %d bytes", h.maxFileBytes))
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read proof upload")
	}
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(io.LimitReader(file, h.maxFileBytes+1))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read proof upload")
	}
	return &models.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}
