package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	handler := http.NewServeMux()
	srv := New(":8080", handler)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, http.Handler(handler), srv.Handler)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, readTimeout, srv.ReadTimeout)
	assert.Equal(t, idleTimeout, srv.IdleTimeout)
	assert.Greater(t, srv.WriteTimeout, readTimeout,
		"write timeout must outlast the handler timeout so timeout bodies flush")
}
