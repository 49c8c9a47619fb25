package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "osukit tests", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"answer":42}`))
	}))
	defer srv.Close()

	r := New("test", srv.Client(), WithUserAgent("osukit tests"))

	var result struct {
		Answer int `json:"answer"`
	}
	body, err := r.SendPayload(context.Background(), &Item{
		Path:   srv.URL,
		Result: &result,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"answer":42}`, string(body))
	assert.Equal(t, 42, result.Answer)
}

func TestSendPayloadValidation(t *testing.T) {
	t.Parallel()

	var nilRequester *Requester
	_, err := nilRequester.SendPayload(context.Background(), &Item{Path: "http://localhost"})
	assert.ErrorIs(t, err, ErrRequestSystemIsNil)

	r := New("test", nil)
	_, err = r.SendPayload(context.Background(), nil)
	assert.ErrorIs(t, err, errRequestItemNil)

	_, err = r.SendPayload(context.Background(), &Item{})
	assert.ErrorIs(t, err, errInvalidPath)

	_, err = r.SendPayload(nil, &Item{Path: "http://localhost"}) //nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, err, errContextRequired)
}

func TestSendPayloadRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := New("test", srv.Client())
	body, err := r.SendPayload(context.Background(), &Item{Path: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSendPayloadRetriesExhausted(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := New("test", srv.Client(), WithRetryAttempts(1))
	_, err := r.SendPayload(context.Background(), &Item{Path: srv.URL})
	assert.ErrorIs(t, err, errFailedToRetry)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSendPayloadNotRetryable(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such beatmap"))
	}))
	defer srv.Close()

	r := New("test", srv.Client())
	_, err := r.SendPayload(context.Background(), &Item{Path: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "no such beatmap")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "client errors should not be retried")
}

func TestSendPayloadBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	r := New("test", srv.Client())
	var result map[string]interface{}
	_, err := r.SendPayload(context.Background(), &Item{Path: srv.URL, Result: &result})
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestBasicLimit(t *testing.T) {
	t.Parallel()

	var nilLimit *BasicLimit
	assert.ErrorIs(t, nilLimit.Wait(context.Background()), errLimiterSystemIsNil)

	l := NewBasicRateLimit(time.Millisecond, 2)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiterRespectsContext(t *testing.T) {
	t.Parallel()

	l := NewBasicRateLimit(time.Hour, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	r := New("test", srv.Client(), WithLimiter(l))
	_, err := r.SendPayload(ctx, &Item{Path: srv.URL})
	assert.ErrorIs(t, err, errLimiterExhausted)
}
