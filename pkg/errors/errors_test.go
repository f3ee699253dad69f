package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

func TestAppError_Error(t *testing.T) {
	err := apperrors.NewTemporalOrderError("end date before start date")
	assert.Equal(t, "TEMPORAL_ORDER: end date before start date", err.Error())

	wrapped := apperrors.NewConcurrentModificationError("primary address race", fmt.Errorf("pq: duplicate key"))
	assert.Contains(t, wrapped.Error(), "CONCURRENT_MODIFICATION")
	assert.Contains(t, wrapped.Error(), "pq: duplicate key")
}

func TestIsType_MatchesWrappedErrors(t *testing.T) {
	base := apperrors.NewNotFoundError("patient not found")
	wrapped := fmt.Errorf("record diagnosis: %w", base)

	assert.True(t, apperrors.IsType(wrapped, apperrors.ErrorTypeNotFound))
	assert.False(t, apperrors.IsType(wrapped, apperrors.ErrorTypeValidation))
	assert.False(t, apperrors.IsType(fmt.Errorf("plain"), apperrors.ErrorTypeNotFound))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, apperrors.IsRetryable(apperrors.NewConcurrentModificationError("lost race", nil)))
	assert.False(t, apperrors.IsRetryable(apperrors.NewInvalidTransitionError("COMPLETED is terminal")))
	assert.False(t, apperrors.IsRetryable(nil))
}
