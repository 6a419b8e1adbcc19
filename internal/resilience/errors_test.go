package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("server overloaded"), 503), true},
		{"wrapped", fmt.Errorf("api call failed: %w", NewTransientError(errors.New("rate limited"), 429)), true},
		{"eris wrapped", eris.Wrap(NewTransientError(errors.New("bad gateway"), 502), "hubspot: list deals"), true},
		{"regular", errors.New("invalid input: missing field"), false},
		{"connection reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"connection refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"network timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"broken pipe text", errors.New("broken pipe"), true},
		{"tls text", errors.New("TLS handshake timeout"), true},
		{"idle connection text", errors.New("server closed idle connection"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 405, 409, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
}

func TestTransientError(t *testing.T) {
	t.Parallel()

	inner := errors.New("something went wrong")
	te := NewTransientError(inner, 503)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 503, te.StatusCode)
	assert.Equal(t, "something went wrong", te.Error())
}
