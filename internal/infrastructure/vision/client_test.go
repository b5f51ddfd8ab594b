package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Detect(t *testing.T) {
	crop := []byte("face-crop")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/detect" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Image != base64.StdEncoding.EncodeToString([]byte("frame")) {
			t.Fatalf("frame not base64 encoded on the wire")
		}
		json.NewEncoder(w).Encode(detectResponse{Detections: []detectionPayload{
			{Crop: base64.StdEncoding.EncodeToString(crop), Confidence: 0.87, Width: 64, Height: 48},
		}})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	detections, err := client.Detect(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected one detection, got %d", len(detections))
	}
	d := detections[0]
	if string(d.Crop) != string(crop) || d.Confidence != 0.87 || d.Width != 64 || d.Height != 48 {
		t.Fatalf("unexpected detection: %+v", d)
	}
}

func TestClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embed" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	embedding, err := client.Embed(context.Background(), []byte("crop"))
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(embedding) != 2 || embedding[0] != 0.1 {
		t.Fatalf("unexpected embedding: %v", embedding)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{1}})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if _, err := client.Embed(context.Background(), []byte("crop")); err != nil {
		t.Fatalf("embed after retries: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if _, err := client.Embed(context.Background(), []byte("crop")); err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	server.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure after server close")
	}
}
