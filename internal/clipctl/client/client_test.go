package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/compositions/promo/render" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(RenderAccepted{
			JobID:         "job-1",
			CompositionID: "promo",
			Status:        "pending",
			Queue:         "high",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Render(context.Background(), "promo", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got.JobID != "job-1" || got.Queue != "high" {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestGetComposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/compositions/promo" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Composition{ID: "promo", Status: "completed"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.GetComposition(context.Background(), "promo")
	if err != nil {
		t.Fatalf("GetComposition() error = %v", err)
	}
	if got.ID != "promo" || got.Status != "completed" {
		t.Errorf("unexpected composition: %+v", got)
	}
}

func TestErrorParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:   "empty_clips",
			Code:    "empty_clips",
			Message: "composition has no clips",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetComposition(context.Background(), "promo")
	if err == nil {
		t.Fatal("expected error")
	}
	want := "empty_clips: composition has no clips"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "/ws/compositions/promo", "ws://localhost:8080/ws/compositions/promo", false},
		{"https://api.clipforge.dev", "/ws/compositions/promo", "wss://api.clipforge.dev/ws/compositions/promo", false},
		{"ftp://nope", "/ws", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			c := New(tt.base)
			got, err := c.websocketURL(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("websocketURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("websocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
