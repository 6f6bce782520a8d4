package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type leaveServiceMock struct {
	req      models.LeaveRequest
	proof    *models.UploadedFile
	partial  models.PartialLeaveRequest
	approved string
	rejected string
	calls    int
	err      error
}

func (m *leaveServiceMock) SubmitLeave(ctx context.Context, session models.Session, req models.LeaveRequest, proof *models.UploadedFile) (*models.AttendanceRecordDetail, error) {
	m.calls++
	m.req = req
	m.proof = proof
	if m.err != nil {
		return nil, m.err
	}
	return &models.AttendanceRecordDetail{AttendanceRecord: models.AttendanceRecord{ID: "a1", Status: req.Status}}, nil
}

func (m *leaveServiceMock) RecordPartialLeave(ctx context.Context, session models.Session, req models.PartialLeaveRequest) (*models.AttendanceRecordDetail, error) {
	m.calls++
	m.partial = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AttendanceRecordDetail{AttendanceRecord: models.AttendanceRecord{ID: "a2", Status: models.AttendanceStatusExcused}}, nil
}

func (m *leaveServiceMock) ListPending(ctx context.Context, session models.Session, classID string) ([]models.AttendanceRecordDetail, error) {
	m.calls++
	return nil, m.err
}

func (m *leaveServiceMock) ApproveLeave(ctx context.Context, session models.Session, id string) (*models.AttendanceRecord, error) {
	m.calls++
	m.approved = id
	return &models.AttendanceRecord{ID: id, Approved: true}, m.err
}

func (m *leaveServiceMock) RejectLeave(ctx context.Context, session models.Session, id string) error {
	m.calls++
	m.rejected = id
	return m.err
}

func multipartLeave(t *testing.T, fields map[string]string, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="proof"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestLeaveHandlerSubmitReadsMultipartProof(t *testing.T) {
	mock := &leaveServiceMock{}
	h := NewLeaveHandler(mock, 1024)

	body, contentType := multipartLeave(t, map[string]string{
		"date": "2026-10-20", "status": "S", "start_time": "07:00", "end_time": "09:00",
	}, "surat.png", "image/png", []byte("\x89PNG\r\n\x1a\n fake"))
	c, w := newTestContext(http.MethodPost, "/leave", body)
	c.Request.Header.Set("Content-Type", contentType)
	withSession(c, testStudent)
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "2026-10-20", mock.req.Date)
	assert.Equal(t, "07:00", mock.req.StartTime)
	require.NotNil(t, mock.proof)
	assert.Equal(t, "surat.png", mock.proof.Filename)
	assert.Equal(t, "image/png", mock.proof.ContentType)
	assert.EqualValues(t, len("\x89PNG\r\n\x1a\n fake"), mock.proof.Size)
}

func TestLeaveHandlerSubmitWithoutFilePassesNil(t *testing.T) {
	mock := &leaveServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "proof file is required")}
	h := NewLeaveHandler(mock, 1024)

	body, contentType := multipartLeave(t, map[string]string{"date": "2026-10-20", "status": "I"}, "", "", nil)
	c, w := newTestContext(http.MethodPost, "/leave", body)
	c.Request.Header.Set("Content-Type", contentType)
	withSession(c, testStudent)
	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.proof)
	assert.Contains(t, w.Body.String(), "proof file is required")
}

func TestLeaveHandlerSubmitRejectsOversizedFile(t *testing.T) {
	mock := &leaveServiceMock{}
	h := NewLeaveHandler(mock, 16)

	body, contentType := multipartLeave(t, map[string]string{"date": "2026-10-20", "status": "S"}, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 64))
	c, w := newTestContext(http.MethodPost, "/leave", body)
	c.Request.Header.Set("Content-Type", contentType)
	withSession(c, testStudent)
	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.calls)
}

func TestLeaveHandlerPartialApproveReject(t *testing.T) {
	mock := &leaveServiceMock{}
	h := NewLeaveHandler(mock, 0)

	c, w := newTestContext(http.MethodPost, "/leave/partial", strings.NewReader(`{"student_id":"s2","date":"2026-10-20","from_period":3,"to_period":5}`))
	withSession(c, testKetua)
	h.Partial(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, mock.partial.From)
	assert.Equal(t, 5, mock.partial.To)

	c, w = newTestContext(http.MethodPost, "/leave/a1/approve", nil)
	c.AddParam("id", "a1")
	withSession(c, testKetua)
	h.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", mock.approved)

	c, _ = newTestContext(http.MethodPost, "/leave/a1/reject", nil)
	c.AddParam("id", "a1")
	withSession(c, testKetua)
	h.Reject(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "a1", mock.rejected)
}
