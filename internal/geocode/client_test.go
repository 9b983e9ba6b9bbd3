package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FirstCandidateWins(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"14.5995","lon":"120.9842"},{"lat":"0","lon":"0"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "DiseaseTracker/1.0", 10*time.Second)
	coords, err := c.Resolve(context.Background(), "Manila, Philippines")
	require.NoError(t, err)
	assert.InDelta(t, 14.5995, coords.Lat, 1e-9)
	assert.InDelta(t, 120.9842, coords.Lng, 1e-9)
	assert.Equal(t, "DiseaseTracker/1.0", gotUA)
	assert.Equal(t, "Manila, Philippines", gotQuery)
}

func TestResolve_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "DiseaseTracker/1.0", 10*time.Second)
	_, err := c.Resolve(context.Background(), "nowhere in particular")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestResolve_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "DiseaseTracker/1.0", 10*time.Second)
	_, err := c.Resolve(context.Background(), "Manila")
	assert.Error(t, err)
}

func TestResolve_MalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"not-a-number","lon":"120.98"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "DiseaseTracker/1.0", 10*time.Second)
	_, err := c.Resolve(context.Background(), "Manila")
	assert.Error(t, err)
}

func TestResolve_TimeoutIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "DiseaseTracker/1.0", 50*time.Millisecond)
	start := time.Now()
	_, err := c.Resolve(context.Background(), "Manila")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "timeout must cut the request short")
}
