package scrape

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

func fastSchedule() Option {
	return WithPollSchedule([]time.Duration{time.Millisecond}, 5)
}

func TestTrigger(t *testing.T) {
	var gotAuth, gotContentType string
	var gotQuery Query

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/scrapes", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"run_id": "run-42"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	runID, err := c.Trigger(context.Background(), Query{
		Platform: "upwork",
		Keywords: []string{"golang", "backend"},
	})

	require.NoError(t, err)
	assert.Equal(t, "run-42", runID)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "upwork", gotQuery.Platform)
	assert.Equal(t, []string{"golang", "backend"}, gotQuery.Keywords)
}

func TestTriggerMissingRunID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	_, err := c.Trigger(context.Background(), Query{Platform: "upwork"})
	assert.ErrorContains(t, err, "no run id")
}

func TestTriggerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	_, err := c.Trigger(context.Background(), Query{Platform: "upwork"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "429")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestPollUntilCompleteSuccess(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/scrapes/run-1", r.URL.Path)
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(Status{State: StateRunning})
			return
		}
		json.NewEncoder(w).Encode(Status{State: StateCompleted, Data: []map[string]any{
			{"id": "j1", "title": "Go Developer"},
		}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", fastSchedule())
	status, err := c.PollUntilComplete(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, status.State)
	require.Len(t, status.Data, 1)
	assert.Equal(t, "j1", status.Data[0]["id"])
	assert.Equal(t, int32(3), polls.Load())
}

func TestPollUntilCompleteFailedRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Status{State: StateFailed, Error: "target blocked us"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", fastSchedule())
	_, err := c.PollUntilComplete(context.Background(), "run-1")

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "run-1", runErr.RunID)
	assert.Equal(t, "target blocked us", runErr.Message)
}

func TestPollUntilCompleteTimesOut(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(Status{State: StateRunning})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", fastSchedule())
	_, err := c.PollUntilComplete(context.Background(), "run-1")

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "run-1", timeout.RunID)
	assert.Equal(t, 5, timeout.Attempts)
	assert.Equal(t, int32(5), polls.Load())
}

func TestPollUntilCompleteToleratesTransientErrors(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Two bad responses, then a good one. Each failed poll spends an
		// attempt but must not abort the run.
		if polls.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Status{State: StateCompleted})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", fastSchedule())
	status, err := c.PollUntilComplete(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, int32(3), polls.Load())
}

func TestPollUntilCompleteHonorsCancellation(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", WithPollSchedule([]time.Duration{time.Hour}, 5))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.PollUntilComplete(ctx, "run-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIntervalForRepeatsLastInterval(t *testing.T) {
	c := NewClient("http://example.com", "")

	assert.Equal(t, 2*time.Second, c.intervalFor(1))
	assert.Equal(t, 5*time.Second, c.intervalFor(2))
	assert.Equal(t, 10*time.Second, c.intervalFor(3))
	assert.Equal(t, 10*time.Second, c.intervalFor(4))
	assert.Equal(t, 10*time.Second, c.intervalFor(30))
}
