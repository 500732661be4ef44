package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

func TestFetchError(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")
	err := domain.NewFetchError(cause)

	assert.Equal(t, domain.FetchErrorMessage, err.Error())
	assert.Equal(t, "Failed to load products. Please check your connection and try again.", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Cause())

	wrapped := fmt.Errorf("fetch: %w", err)
	var fe *domain.FetchError
	assert.True(t, errors.As(wrapped, &fe))

	assert.Empty(t, (&domain.FetchError{}).Cause())
	assert.Equal(t, domain.FetchErrorMessage, (&domain.FetchError{}).Error())
}
