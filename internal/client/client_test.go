package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHeadersAndBody(t *testing.T) {
	var gotAuth, gotType string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":7,"result":150}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.SetToken("tok")

	b := 5.0
	resp, err := c.PatchCalculation(context.Background(), 7, CalculationPatch{B: &b})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]any{"b": 5.0}, gotBody)

	var out struct {
		ID     int64   `json:"id"`
		Result float64 `json:"result"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, int64(7), out.ID)
}

func TestPatchSendsExplicitZero(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer ts.Close()

	zero := 0.0
	_, err := New(ts.URL).PatchCalculation(context.Background(), 1, CalculationPatch{B: &zero})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 0.0}, gotBody)
}

func TestAnonymousDropsToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.SetToken("tok")
	anon := c.Anonymous()

	_, err := anon.ListCalculations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "tok", c.Token())
}

func TestPretty(t *testing.T) {
	r := &Response{Body: []byte(`{"a":1}` + "\n")}
	assert.Equal(t, "{\n  \"a\": 1\n}", r.Pretty())

	r = &Response{Body: []byte("not json")}
	assert.Equal(t, "not json", r.Pretty())
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, New(ts.URL).WaitReady(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitReadyGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := New(ts.URL).WaitReady(ctx)
	assert.Error(t, err)
}
