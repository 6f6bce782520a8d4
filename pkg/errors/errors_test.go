package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneMatchesTemplate(t *testing.T) {
	err := fmt.Errorf("handler: %w", Clone(ErrAttendanceLocked, "Libur Akhir Pekan"))
	assert.True(t, errors.Is(err, ErrAttendanceLocked))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Libur Akhir Pekan", FromError(err).Message)
}

func TestLookupMissDistinctFromStoreFailure(t *testing.T) {
	miss := Clone(ErrAccountNotFound, "")
	failure := Internal(sql.ErrConnDone, "failed to fetch user")
	assert.NotEqual(t, miss.Code, failure.Code)
	assert.Nil(t, FromError(nil))
}

func TestStoreMapsUniqueViolationToConflict(t *testing.T) {
	dup := fmt.Errorf("insert student: %w", &pq.Error{Code: "23505", Constraint: "students_class_id_nomor_absen_key"})
	err := Store(dup, "roll number already used in this class", "failed to create student")
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, IsUniqueViolation(err))

	err = Store(sql.ErrConnDone, "roll number already used in this class", "failed to create student")
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, "failed to create student", err.Message)
}

func TestNotFoundNamesResource(t *testing.T) {
	err := NotFound("holiday")
	assert.Equal(t, "holiday not found", err.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}
