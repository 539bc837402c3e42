package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"SignalScan/internal/domain/models"
	apphttp "SignalScan/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firebaseCall struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func newFirebaseServer(t *testing.T, status int) (*httptest.Server, *[]firebaseCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []firebaseCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, firebaseCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.URL.Query().Get("auth"),
			Body:   string(body),
		})
		mu.Unlock()

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"Permission denied"}`))
			return
		}
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"name":"-Nabc123"}`))
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFirebaseStoreSetAndPush(t *testing.T) {
	srv, calls := newFirebaseServer(t, http.StatusOK)
	store := NewFirebaseStore(apphttp.NewClient(), srv.URL+"/", "secret")
	ctx := context.Background()

	payload := models.SignalPayload{Symbol: "TCS", SignalType: "breakout_bull", Timestamp: "2024-10-10 10:00:00"}
	require.NoError(t, store.Set(ctx, models.LatestPath(models.SignalBreakoutBull, "TCS"), payload))

	key, err := store.Push(ctx, models.HistoryPath(models.SignalBreakoutBull), payload)
	require.NoError(t, err)
	assert.Equal(t, "-Nabc123", key)

	require.Len(t, *calls, 2)
	assert.Equal(t, firebaseCall{
		Method: http.MethodPut,
		Path:   "/signals/breakout_bull/TCS.json",
		Auth:   "secret",
		Body:   (*calls)[0].Body,
	}, (*calls)[0])
	assert.Equal(t, http.MethodPost, (*calls)[1].Method)
	assert.Equal(t, "/signals/history/breakout_bull.json", (*calls)[1].Path)

	var got models.SignalPayload
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].Body), &got))
	assert.Equal(t, payload, got)
}

func TestFirebaseStoreErrorStatus(t *testing.T) {
	srv, _ := newFirebaseServer(t, http.StatusUnauthorized)
	store := NewFirebaseStore(apphttp.NewClient(), srv.URL, "")

	err := store.Set(context.Background(), "/signals/x/TCS", map[string]string{})
	require.Error(t, err)

	var se *apphttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	_, err = store.Push(context.Background(), "/signals/history/x", map[string]string{})
	assert.Error(t, err)
}

func TestFirebaseStoreHealthUsesShallowRoot(t *testing.T) {
	srv, calls := newFirebaseServer(t, http.StatusOK)
	store := NewFirebaseStore(apphttp.NewClient(), srv.URL, "")

	require.NoError(t, store.Health(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/.json", (*calls)[0].Path)
	assert.Empty(t, (*calls)[0].Auth)
}
