package healthcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPingerDisabled(t *testing.T) {
	assert.False(t, New("").Enabled())
	assert.NoError(t, New("").Ping(context.Background()))

	var p *Pinger
	assert.False(t, p.Enabled())
}

func TestPing(t *testing.T) {
	var pinged int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pinged++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(srv.URL)
	assert.True(t, p.Enabled())
	assert.NoError(t, p.Ping(context.Background()))
	assert.Equal(t, 1, pinged)
}

func TestPingBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL).Ping(context.Background())
	assert.ErrorContains(t, err, "404")
}
