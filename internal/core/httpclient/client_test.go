package httpclient

import (
	"crypto/x509"
	"encoding/pem"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"zbozi-konverze/internal/core/logger"
	"zbozi-konverze/internal/core/proxy"

	"github.com/elazarl/goproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trustServer(ts *httptest.Server) *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())
	return pool
}

// TestLoggingRoundTripper verifies that requests are logged.
func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	logger.Init("development", "debug")

	client := NewClient(Options{Timeout: 1 * time.Second})
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestLoggingRoundTripper_Error verifies that failed requests are logged.
func TestLoggingRoundTripper_Error(t *testing.T) {
	logger.Init("development", "debug")

	client := NewClient(Options{Timeout: 1 * time.Second})
	_, err := client.Get("http://invalid-url-that-does-not-exist.local")
	require.Error(t, err)
}

// TestNewClient_RejectsUntrustedCertificate verifies that peer verification cannot be skipped.
func TestNewClient_RejectsUntrustedCertificate(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(Options{Timeout: 2 * time.Second})
	_, err := client.Get(ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")
}

// TestNewClient_TrustsConfiguredRoots verifies that extra roots are honoured.
func TestNewClient_TrustsConfiguredRoots(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(Options{Timeout: 2 * time.Second, RootCAs: trustServer(ts)})
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestNewClient_Proxy verifies that TLS requests are tunnelled through the configured proxy.
func TestNewClient_Proxy(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var connects atomic.Int32
	fwd := goproxy.NewProxyHttpServer()
	fwd.OnRequest().HandleConnectFunc(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		connects.Add(1)
		return goproxy.OkConnect, host
	})
	proxySrv := httptest.NewServer(fwd)
	defer proxySrv.Close()

	settings := proxy.Settings{
		Enabled:  true,
		Hostname: "127.0.0.1",
		Port:     proxySrv.Listener.Addr().(*net.TCPAddr).Port,
	}

	client := NewClient(Options{Timeout: 2 * time.Second, Proxy: settings, RootCAs: trustServer(ts)})
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), connects.Load())
}

func TestLoadRootCAs(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	dir := t.TempDir()

	t.Run("Valid PEM", func(t *testing.T) {
		path := filepath.Join(dir, "ca.pem")
		block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
		require.NoError(t, os.WriteFile(path, block, 0600))

		pool, err := LoadRootCAs(path)
		require.NoError(t, err)

		client := NewClient(Options{Timeout: 2 * time.Second, RootCAs: pool})
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	})

	t.Run("No Certificates", func(t *testing.T) {
		path := filepath.Join(dir, "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0600))

		_, err := LoadRootCAs(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no certificates found")
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadRootCAs(filepath.Join(dir, "missing.pem"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read CA file")
	})
}
