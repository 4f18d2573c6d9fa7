package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	srv := New(8080, http.NotFoundHandler(), Options{})

	assert.Equal(t, ":8080", srv.Addr())
	assert.Equal(t, 5*time.Second, srv.inner.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Minute, srv.inner.WriteTimeout)

	srv = New(9000, http.NotFoundHandler(), Options{WriteTimeout: time.Second})
	assert.Equal(t, time.Second, srv.inner.WriteTimeout)
}

func TestServeRunsHooksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var order []string
	hookErr := errors.New("drain failed")
	err := Serve(ctx, New(0, http.NotFoundHandler(), Options{}), time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(context.Context) error {
			order = append(order, "first")
			return hookErr
		},
		func(ctx context.Context) error {
			order = append(order, "second")
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		},
	)

	require.ErrorIs(t, err, hookErr)
	assert.Equal(t, []string{"first", "second"}, order)
}
