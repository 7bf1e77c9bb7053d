package custom_errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	validationErrs := &ValidationError{}
	assert.False(t, validationErrs.HasError())
	assert.NoError(t, validationErrs.ErrOrNil())
	assert.Equal(t, "", validationErrs.Error())

	validationErrs.Add(errors.New("first"))
	validationErrs.Add(nil)
	validationErrs.Add(errors.New("second"))
	assert.True(t, validationErrs.HasError())
	assert.Len(t, validationErrs.Errors, 2)
	assert.Equal(t, "first; second", validationErrs.Error())
	assert.Same(t, validationErrs, validationErrs.ErrOrNil())
}

func TestValidationError_Unwrap(t *testing.T) {
	validationErrs := &ValidationError{}
	validationErrs.Add(errors.New("task identifier is required"))
	validationErrs.Add(fmt.Errorf("request timeout: %w", &TimeoutError{Path: "/jobs", Err: context.DeadlineExceeded}))
	validationErrs.Add(ErrPreferenceNotFound)

	err := fmt.Errorf("submit: %w", validationErrs)
	assert.ErrorIs(t, err, ErrPreferenceNotFound)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, context.Canceled)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "/jobs", timeout.Path)

	var asValidation *ValidationError
	require.ErrorAs(t, err, &asValidation)
	assert.Len(t, asValidation.Errors, 3)
}

func TestStatusError(t *testing.T) {
	err := fmt.Errorf("list jobs: %w", &StatusError{
		Method:     http.MethodGet,
		Path:       "/jobs",
		StatusCode: http.StatusBadRequest,
		Body:       []byte(`{"errCode":"IVQPS"}`),
	})

	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(errors.New("plain"), http.StatusBadRequest))
	assert.Contains(t, err.Error(), "GET /jobs: 400 Bad Request")
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Method: http.MethodPost, Path: "/jobs", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "POST /jobs")
}
