package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestModelLoader_LoadModel(t *testing.T) {
	var loads, polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models":
			n := polls.Add(1)
			status := ModelStatus{ID: "bart", InCache: n > 2}
			_ = json.NewEncoder(w).Encode(ModelsResponse{Data: []ModelStatus{status}})
		case "/models/load":
			loads.Add(1)
			var req LoadModelRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "bart" {
				t.Errorf("expected model bart, got %s", req.Model)
			}
			_ = json.NewEncoder(w).Encode(LoadModelResponse{Success: true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ml := NewModelLoader(server.URL)
	ml.pollInterval = time.Millisecond

	if err := ml.LoadModel(context.Background(), "bart", nil); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if loads.Load() != 1 {
		t.Errorf("load endpoint called %d times, want 1", loads.Load())
	}

	loaded, err := ml.IsModelLoaded(context.Background(), "bart")
	if err != nil || !loaded {
		t.Errorf("IsModelLoaded() = %v, %v, want true", loaded, err)
	}
	if err := ml.LoadModel(context.Background(), "bart", nil); err != nil {
		t.Fatalf("LoadModel() second call error = %v", err)
	}
	if loads.Load() != 1 {
		t.Errorf("already loaded model should not be loaded again")
	}
}

func TestModelLoader_LoadFailures(t *testing.T) {
	failed := true
	exitCode := 3

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "load rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/models/load" {
					_ = json.NewEncoder(w).Encode(LoadModelResponse{Success: false, Error: "no such model"})
					return
				}
				_ = json.NewEncoder(w).Encode(ModelsResponse{})
			},
		},
		{
			name: "load crashed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/models/load" {
					_ = json.NewEncoder(w).Encode(LoadModelResponse{Success: true})
					return
				}
				status := ModelStatus{ID: "bart"}
				status.Status.Failed = &failed
				status.Status.ExitCode = &exitCode
				_ = json.NewEncoder(w).Encode(ModelsResponse{Data: []ModelStatus{status}})
			},
		},
		{
			name: "never loads",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/models/load" {
					_ = json.NewEncoder(w).Encode(LoadModelResponse{Success: true})
					return
				}
				_ = json.NewEncoder(w).Encode(ModelsResponse{Data: []ModelStatus{{ID: "bart"}}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			ml := NewModelLoader(server.URL)
			ml.pollInterval = time.Millisecond
			ml.maxAttempts = 3

			if err := ml.LoadModel(context.Background(), "bart", nil); err == nil {
				t.Error("LoadModel() expected error, got nil")
			}
		})
	}
}
