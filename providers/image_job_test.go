package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pagegen/core"
	"pagegen/logging"
)

func imageTestClient(t *testing.T, handler http.Handler) *ImageJobClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &core.Config{
		ImageAPIURL:    server.URL,
		ImageAPIKey:    "test-key",
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
		PollMaxChecks:  3,
	}
	return NewImageJobClient(cfg, core.NewCredentialStore(cfg), logging.NewNop())
}

func TestImageJobSubmitAndPoll(t *testing.T) {
	polls := 0
	handler := http.NewServeMux()
	handler.HandleFunc("/jobs/createTask", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		var req struct {
			Model string     `json:"model"`
			Input ImageInput `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding submit body: %v", err)
		}
		if req.Model != "flux-kontext-pro" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Input.Prompt == "" {
			t.Error("submit carried an empty prompt")
		}
		w.Write([]byte(`{"code":200,"msg":"ok","data":{"taskId":"job-42"}}`))
	})
	handler.HandleFunc("/jobs/recordInfo", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("taskId") != "job-42" {
			t.Errorf("poll for wrong job: %q", r.URL.Query().Get("taskId"))
		}
		polls++
		if polls < 2 {
			w.Write([]byte(`{"code":200,"data":{"state":"waiting"}}`))
			return
		}
		w.Write([]byte(`{"code":200,"data":{"state":"success","resultJson":"{\"resultUrls\":[\"https://cdn.example.com/out.png\"]}"}}`))
	})

	client := imageTestClient(t, handler)

	jobID, err := client.Submit(context.Background(), "flux-kontext-pro", ImageInput{Prompt: "studio shot"})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if jobID != "job-42" {
		t.Fatalf("job id = %q", jobID)
	}

	urls, err := client.PollUntilDone(context.Background(), jobID)
	if err != nil {
		t.Fatalf("PollUntilDone() error: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example.com/out.png" {
		t.Errorf("result urls = %v", urls)
	}
	if polls != 2 {
		t.Errorf("polled %d times, want 2", polls)
	}
}

func TestImageJobSubmitCreditsExhausted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":402,"msg":"insufficient credits remaining"}`))
	})

	client := imageTestClient(t, handler)

	_, err := client.Submit(context.Background(), "flux-kontext-pro", ImageInput{Prompt: "x"})
	if !core.IsCreditsExhausted(err) {
		t.Errorf("Submit() error kind = %s, want credits_exhausted (%v)", core.KindOf(err), err)
	}
}

func TestImageJobSubmitHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   core.FailureKind
	}{
		{name: "payment required", status: http.StatusPaymentRequired, want: core.KindCreditsExhausted},
		{name: "too many requests", status: http.StatusTooManyRequests, want: core.KindRateLimited},
		{name: "unauthorized", status: http.StatusUnauthorized, want: core.KindAuthOrConfig},
		{name: "forbidden", status: http.StatusForbidden, want: core.KindAuthOrConfig},
		{name: "server error", status: http.StatusInternalServerError, want: core.KindProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			client := imageTestClient(t, handler)

			_, err := client.Submit(context.Background(), "m", ImageInput{Prompt: "x"})
			if err == nil {
				t.Fatal("Submit() succeeded against a failing server")
			}
			if got := core.KindOf(err); got != tt.want {
				t.Errorf("error kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestImageJobSubmitWithoutCredential(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := &core.Config{ImageAPIURL: server.URL, PollInterval: time.Millisecond, PollMaxChecks: 1}
	client := NewImageJobClient(cfg, core.NewCredentialStore(cfg), logging.NewNop())

	_, err := client.Submit(context.Background(), "m", ImageInput{Prompt: "x"})
	if !core.IsAuthOrConfig(err) {
		t.Errorf("error kind = %s, want auth_or_config", core.KindOf(err))
	}
	if called {
		t.Error("a network call was made without a credential")
	}
}

func TestPollUntilDonePendingForeverIsTimeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"state":"waiting"}}`))
	})

	client := imageTestClient(t, handler)

	_, err := client.PollUntilDone(context.Background(), "job-stuck")
	if core.KindOf(err) != core.KindTimeout {
		t.Errorf("error kind = %s, want timeout (%v)", core.KindOf(err), err)
	}
}

func TestPollUntilDoneJobFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"state":"fail","failMsg":"content policy rejection"}}`))
	})

	client := imageTestClient(t, handler)

	_, err := client.PollUntilDone(context.Background(), "job-bad")
	if err == nil {
		t.Fatal("PollUntilDone() succeeded for a failed job")
	}
	if core.KindOf(err) != core.KindProvider {
		t.Errorf("error kind = %s, want provider", core.KindOf(err))
	}
}

func TestPollCreditsExhaustedMidJob(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"state":"fail","failMsg":"not enough credits to finish"}}`))
	})

	client := imageTestClient(t, handler)

	_, err := client.PollUntilDone(context.Background(), "job-poor")
	if !core.IsCreditsExhausted(err) {
		t.Errorf("error kind = %s, want credits_exhausted", core.KindOf(err))
	}
}
