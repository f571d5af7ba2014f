package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrshiti/inplay-sub000/internal/shared/errors"
)

type sampleRequest struct {
	ContentID string `json:"content_id" validate:"required"`
	DeviceID  string `json:"device_id" validate:"required,max=8"`
	Quality   string `json:"quality" validate:"omitempty,oneof=auto 720p"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleRequest{ContentID: "c1", DeviceID: "dev"}))

	err := ValidateStruct(sampleRequest{DeviceID: "much-too-long", Quality: "4k"})
	require.Error(t, err)

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "content_id is required")
	assert.Contains(t, appErr.Details, "device_id must be at most 8 characters long")
	assert.Contains(t, appErr.Details, "quality must be one of [auto 720p]")
}
