package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

func TestPerformActionSendsRequest(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotAuth   string
		gotBody   actionPayload
		gotMethod string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := New(server.URL+"/", WithToken("secret"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.PerformAction(context.Background(), interfaces.ActionRequest{
		BatchID:        "batch-1",
		ContentType:    "event",
		ItemID:         "e 1",
		ActionID:       "change_category",
		InputData:      map[string]any{"category": "youth"},
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/event/e 1/actions/change_category" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotKey != "key-1" || gotAuth != "Bearer secret" {
		t.Fatalf("unexpected headers key=%q auth=%q", gotKey, gotAuth)
	}
	if gotBody.BatchID != "batch-1" || gotBody.InputData["category"] != "youth" {
		t.Fatalf("unexpected body %+v", gotBody)
	}
}

func TestPerformActionMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   interfaces.ErrorKind
	}{
		{http.StatusNotFound, interfaces.ErrorKindNotFound},
		{http.StatusUnauthorized, interfaces.ErrorKindForbidden},
		{http.StatusForbidden, interfaces.ErrorKindForbidden},
		{http.StatusConflict, interfaces.ErrorKindConflict},
		{http.StatusPreconditionFailed, interfaces.ErrorKindConflict},
		{http.StatusRequestTimeout, interfaces.ErrorKindTransient},
		{http.StatusTooManyRequests, interfaces.ErrorKindTransient},
		{http.StatusBadGateway, interfaces.ErrorKindTransient},
		{http.StatusTeapot, interfaces.ErrorKindUnknown},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			err = client.PerformAction(context.Background(), interfaces.ActionRequest{ContentType: "event", ItemID: "1", ActionID: "publish"})
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tc.status || statusErr.Message != "nope" {
				t.Fatalf("expected status error, got %v", err)
			}
			if got := executor.Classify(err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPerformActionNetworkFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.PerformAction(context.Background(), interfaces.ActionRequest{ContentType: "event", ItemID: "1", ActionID: "publish"})
	if !errors.Is(err, interfaces.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  "); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
}
