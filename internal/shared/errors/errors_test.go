package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorConstructors(t *testing.T) {
	err := NewNotFoundError("license not found", "lic_123")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Equal(t, "not_found: license not found (lic_123)", err.Error())
	assert.Equal(t, http.StatusGone, NewGoneError("expired").Code)
}

func TestGetAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("issue: %w", NewValidationError("device_id is required"))

	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(errors.New("Error 1062: Duplicate entry 'x' for key 'idx_license_key_hash'")))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: download_licenses.license_key_hash")))
	assert.False(t, IsDuplicateError(errors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
