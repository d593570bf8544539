package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/observability"
)

func TestClientGet(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantCode  errors.Code
	}{
		{"ok", []int{200}, 1, ""},
		{"retries 503", []int{503, 503, 200}, 3, ""},
		{"retries 429", []int{429, 200}, 2, ""},
		{"gives up", []int{500, 500, 500}, 3, errors.ErrCodeNetwork},
		{"not found", []int{404}, 1, errors.ErrCodeNotFound},
		{"forbidden", []int{403}, 1, errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				i := int(calls.Add(1)) - 1
				w.WriteHeader(tt.statuses[min(i, len(tt.statuses)-1)])
				_, _ = w.Write([]byte("nodes: []\n"))
			}))
			defer srv.Close()

			c := NewClient(srv.Client(), 3, time.Millisecond)
			body, err := c.Get(context.Background(), srv.URL+"/data/nodes.yaml")

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Get() error: %v", err)
				}
				if string(body) != "nodes: []\n" {
					t.Errorf("body = %q", body)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
			if IsRetryable(err) {
				t.Error("Get should not leak the retry wrapper")
			}
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(nil, 2, time.Millisecond)
	_, err := c.Get(context.Background(), url)
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK_ERROR", err)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	requests, responses int
	lastStatus          int
	lastPath            string
}

func (h *recordingHooks) OnRequest(_ context.Context, _, _, path string) {
	h.requests++
	h.lastPath = path
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.responses++
	h.lastStatus = status
}

func TestClientHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.Client(), 1, 0).Get(context.Background(), srv.URL+"/data/groups.yaml"); err != nil {
		t.Fatal(err)
	}
	if hooks.requests != 1 || hooks.responses != 1 || hooks.lastStatus != 200 || hooks.lastPath != "/data/groups.yaml" {
		t.Errorf("hooks = %+v", hooks)
	}
}
