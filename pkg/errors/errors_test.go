package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", Newf(ErrInvalidInput, http.StatusTeapot, "limit %d", 0), http.StatusTeapot},
		{"invalid input", fmt.Errorf("parsing limit: %w", ErrInvalidInput), http.StatusBadRequest},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unscored index", fmt.Errorf("loading: %w", ErrNotScored), http.StatusServiceUnavailable},
		{"anything else", ErrDuplicateDocument, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("search: %w", New(ErrInvalidInput, http.StatusBadRequest, "empty query"))
	require.True(t, Is(err, ErrInvalidInput))
	require.Equal(t, "invalid input: empty query", New(ErrInvalidInput, http.StatusBadRequest, "empty query").Error())

	var appErr *AppError
	require.True(t, As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}
