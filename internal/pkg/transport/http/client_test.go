package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("should use defaults when no options are provided", func(t *testing.T) {
		client := NewClient()

		assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 1*time.Second, client.RetryWaitMin)
		assert.Equal(t, 5*time.Second, client.RetryWaitMax)
		assert.Equal(t, 2, client.RetryMax)
		assert.NotNil(t, client.ErrorHandler)
	})

	t.Run("should apply the provided options", func(t *testing.T) {
		client := NewClient(
			WithTimeout(10*time.Second),
			WithRetryWaitMin(200*time.Millisecond),
			WithRetryWaitMax(time.Second),
			WithRetryMax(5),
		)

		assert.Equal(t, 10*time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 200*time.Millisecond, client.RetryWaitMin)
		assert.Equal(t, time.Second, client.RetryWaitMax)
		assert.Equal(t, 5, client.RetryMax)
	})
}

func TestGetJSON(t *testing.T) {
	t.Run("should decode a successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Write([]byte(`{"status":0,"data":{"live":true}}`))
		}))
		defer srv.Close()

		var out struct {
			Status int `json:"status"`
			Data   struct {
				Live bool `json:"live"`
			} `json:"data"`
		}
		code, err := GetJSON(t.Context(), NewClient(), srv.URL, &out)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, out.Data.Live)
	})

	t.Run("should return the last response after retries are exhausted", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":1}`))
		}))
		defer srv.Close()

		client := NewClient(WithRetryMax(1), WithRetryWaitMin(time.Millisecond), WithRetryWaitMax(time.Millisecond))

		var out map[string]any
		code, err := GetJSON(t.Context(), client, srv.URL, &out)

		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, int32(2), calls.Load())
		assert.EqualValues(t, 1, out["status"])
	})

	t.Run("should fail on a body that is not JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		var out map[string]any
		_, err := GetJSON(t.Context(), NewClient(), srv.URL, &out)

		assert.Error(t, err)
	})
}
