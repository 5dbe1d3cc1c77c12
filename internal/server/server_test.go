package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"

	"notification_feed/internal/db"
	"notification_feed/internal/metrics"
	"notification_feed/internal/models"
	"notification_feed/internal/server"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	items   map[int64]models.Notification
	listErr error
	pingErr error
}

func newMemStore(n int) *memStore {
	s := &memStore{items: make(map[int64]models.Notification)}
	for i := 1; i <= n; i++ {
		s.items[int64(i)] = models.Notification{
			ID:      int64(i),
			Message: "Your saved product was updated",
			Link:    "/product/detail",
			Date:    "2024-05-01",
		}
	}
	return s
}

func (s *memStore) ListNotifications(_ context.Context, beforeID int64, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Notification
	for id, n := range s.items {
		if beforeID > 0 && id >= beforeID {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) DeleteNotification(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func getPage(t *testing.T, h http.Handler, query url.Values) models.Page {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/notification?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var page models.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func TestListNotifications_Paginates(t *testing.T) {
	srv := server.NewServer(newMemStore(5), nil)
	h := srv.Routes()

	first := getPage(t, h, url.Values{"size": {"2"}})
	require.Len(t, first.Notifications, 2)
	require.Equal(t, int64(5), first.Notifications[0].ID)
	require.Equal(t, int64(4), first.Notifications[1].ID)
	require.True(t, first.HasNext())

	second := getPage(t, h, url.Values{"size": {"2"}, "cursor": {first.Next()}})
	require.Equal(t, int64(3), second.Notifications[0].ID)
	require.Equal(t, int64(2), second.Notifications[1].ID)
	require.True(t, second.HasNext())

	last := getPage(t, h, url.Values{"size": {"2"}, "cursor": {second.Next()}})
	require.Len(t, last.Notifications, 1)
	require.Equal(t, int64(1), last.Notifications[0].ID)
	require.False(t, last.HasNext())
	require.Nil(t, last.NextCursor)
}

func TestListNotifications_NullCursorOnWire(t *testing.T) {
	srv := server.NewServer(newMemStore(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/notification", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t,
		`{"notifications":[{"id":1,"message":"Your saved product was updated","link":"/product/detail","date":"2024-05-01"}],"nextCursor":null}`,
		w.Body.String())
}

func TestListNotifications_SizeBounds(t *testing.T) {
	srv := server.NewServer(newMemStore(60), nil)
	h := srv.Routes()

	require.Len(t, getPage(t, h, url.Values{}).Notifications, 10)
	require.Len(t, getPage(t, h, url.Values{"size": {"abc"}}).Notifications, 10)
	require.Len(t, getPage(t, h, url.Values{"size": {"500"}}).Notifications, 50)
}

func TestListNotifications_InvalidCursor(t *testing.T) {
	srv := server.NewServer(newMemStore(3), nil)

	req := httptest.NewRequest(http.MethodGet, "/notification?cursor=!!", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListNotifications_StoreError(t *testing.T) {
	store := newMemStore(3)
	store.listErr = errors.New("connection refused")
	srv := server.NewServer(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/notification", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteNotification(t *testing.T) {
	store := newMemStore(3)
	srv := server.NewServer(store, nil)
	h := srv.Routes()

	testCases := []struct {
		name string
		path string
		want int
	}{
		{name: "deleted", path: "/notification/2", want: http.StatusNoContent},
		{name: "already deleted", path: "/notification/2", want: http.StatusNotFound},
		{name: "bad id", path: "/notification/abc", want: http.StatusBadRequest},
		{name: "zero id", path: "/notification/0", want: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, tc.path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
		})
	}

	page := getPage(t, h, url.Values{})
	require.Len(t, page.Notifications, 2)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := server.NewServer(newMemStore(0), nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		srv.Routes().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "OK", w.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		store := newMemStore(0)
		store.pingErr = errors.New("down")
		srv := server.NewServer(store, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		srv.Routes().ServeHTTP(w, req)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMiddleware_RequestIDAndMetrics(t *testing.T) {
	m := metrics.New(nil)
	srv := server.NewServer(newMemStore(1), m)
	h := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/notification", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.NotEmpty(t, w.Header().Get(server.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/notification", nil)
	req.Header.Set(server.RequestIDHeader, "abc123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "abc123", w.Header().Get(server.RequestIDHeader))

	require.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/notification", "200")))
}
