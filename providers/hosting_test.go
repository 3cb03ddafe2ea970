package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pagegen/core"
	"pagegen/logging"
)

func hostTestClient(t *testing.T, handler http.Handler) *HostClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &core.Config{
		HostingAPIURL:  server.URL,
		HostingAPIKey:  "host-key",
		RequestTimeout: 5 * time.Second,
	}
	return NewHostClient(cfg, core.NewCredentialStore(cfg), logging.NewNop())
}

func TestUploadInlineImage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if r.PostForm.Get("key") != "host-key" {
			t.Errorf("form key = %q", r.PostForm.Get("key"))
		}
		if r.PostForm.Get("image") != "aGVsbG8=" {
			t.Errorf("form image = %q, want stripped base64 payload", r.PostForm.Get("image"))
		}
		w.Write([]byte(`{"success":true,"data":{"url":"https://i.example.com/abc.png"}}`))
	})

	client := hostTestClient(t, handler)

	url, err := client.Upload(context.Background(), "data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "https://i.example.com/abc.png" {
		t.Errorf("Upload() = %q", url)
	}
}

func TestUploadPassesThroughHostedURLs(t *testing.T) {
	called := false
	client := hostTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	url, err := client.Upload(context.Background(), "https://already.example.com/photo.jpg")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "https://already.example.com/photo.jpg" {
		t.Errorf("Upload() = %q", url)
	}
	if called {
		t.Error("pass-through URL triggered a network call")
	}
}

func TestUploadRejectsUnsupportedPayloads(t *testing.T) {
	client := hostTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("rejected payload reached the network")
	}))

	tests := []struct {
		name    string
		payload string
	}{
		{name: "vector placeholder", payload: "data:image/svg+xml;base64,PHN2Zz4="},
		{name: "not an image", payload: "data:text/plain;base64,aGVsbG8="},
		{name: "not base64", payload: "data:image/png;hex,ffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Upload(context.Background(), tt.payload)
			if core.KindOf(err) != core.KindUpload {
				t.Errorf("error kind = %s, want upload (%v)", core.KindOf(err), err)
			}
		})
	}
}

func TestUploadHostRejection(t *testing.T) {
	client := hostTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"message":"file too large"}}`))
	}))

	_, err := client.Upload(context.Background(), "data:image/png;base64,aGVsbG8=")
	if core.KindOf(err) != core.KindUpload {
		t.Errorf("error kind = %s, want upload", core.KindOf(err))
	}
}
