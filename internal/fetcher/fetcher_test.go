package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notification_feed/internal/fetcher"

	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	testCases := []struct {
		name        string
		cursor      string
		body        string
		status      int
		wantQuery   string
		wantIDs     []int64
		wantNext    string
		wantHasNext bool
		wantErr     bool
	}{
		{
			name:        "first page",
			body:        `{"notifications":[{"id":1,"message":"m1","link":"/p/1","date":"2024-05-01"},{"id":2,"message":"m2","link":"/p/2","date":"2024-05-01"}],"nextCursor":"c1"}`,
			status:      http.StatusOK,
			wantQuery:   "size=10",
			wantIDs:     []int64{1, 2},
			wantNext:    "c1",
			wantHasNext: true,
		},
		{
			name:      "last page",
			cursor:    "c1",
			body:      `{"notifications":[{"id":3,"message":"m3","link":"/p/3","date":"2024-04-30"}],"nextCursor":null}`,
			status:    http.StatusOK,
			wantQuery: "cursor=c1&size=10",
			wantIDs:   []int64{3},
		},
		{
			name:        "empty page keeps cursor",
			cursor:      "c1",
			body:        `{"notifications":[],"nextCursor":"c2"}`,
			status:      http.StatusOK,
			wantQuery:   "cursor=c1&size=10",
			wantIDs:     []int64{},
			wantNext:    "c2",
			wantHasNext: true,
		},
		{
			name:    "server error",
			body:    `oops`,
			status:  http.StatusInternalServerError,
			wantErr: true,
		},
		{
			name:    "invalid json",
			body:    `{ invalid`,
			status:  http.StatusOK,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/notification", r.URL.Path)
				if tc.wantQuery != "" {
					require.Equal(t, tc.wantQuery, r.URL.RawQuery)
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := fetcher.NewClient(server.URL+"/", 10, 5*time.Second)
			page, err := client.FetchPage(context.Background(), tc.cursor)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			got := make([]int64, 0, len(page.Notifications))
			for _, n := range page.Notifications {
				got = append(got, n.ID)
			}
			require.Equal(t, tc.wantIDs, got)
			require.Equal(t, tc.cursor, page.Cursor)
			require.Equal(t, tc.wantHasNext, page.HasNext())
			require.Equal(t, tc.wantNext, page.Next())
		})
	}
}

func TestFetchPage_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := fetcher.NewClient(server.URL, 0, time.Second)
	_, err := client.FetchPage(context.Background(), "")

	var statusErr *fetcher.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestFetchPage_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := fetcher.NewClient(server.URL, 10, 5*time.Second)
	_, err := client.FetchPage(ctx, "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeleteNotification(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodDelete, r.Method)
				require.Equal(t, "/notification/42", r.URL.Path)
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := fetcher.NewClient(server.URL, 10, time.Second)
			err := client.DeleteNotification(context.Background(), 42)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
