package llm

import (
	"context"
	"fmt"
	"time"
)

// ModelLoader warms models on a llama.cpp router (GET /models, POST /models/load)
// so the first embedding or summarization request does not pay the load time.
type ModelLoader struct {
	api          *Client
	pollInterval time.Duration
	maxAttempts  int
}

// NewModelLoader creates a loader for the router at baseURL.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		api:          NewClient(baseURL, "", ""),
		pollInterval: time.Second,
		maxAttempts:  30,
	}
}

// LoadModelRequest is the body of POST /models/load.
type LoadModelRequest struct {
	Model     string   `json:"model"`
	ExtraArgs []string `json:"extra_args,omitempty"`
}

// LoadModelResponse is the reply to POST /models/load.
type LoadModelResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ModelStatus is one entry of GET /models.
type ModelStatus struct {
	ID      string `json:"id"`
	InCache bool   `json:"in_cache"`
	Status  struct {
		Value    string `json:"value"`
		ExitCode *int   `json:"exit_code,omitempty"`
		Failed   *bool  `json:"failed,omitempty"`
	} `json:"status"`
}

// ModelsResponse is the reply to GET /models.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

func (s *ModelStatus) failed() bool {
	return s.Status.Failed != nil && *s.Status.Failed
}

// IsModelLoaded reports whether the router holds model in memory.
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, model string) (bool, error) {
	status, err := ml.status(ctx, model)
	if err != nil {
		return false, err
	}
	return status != nil && status.InCache, nil
}

// status returns the router's entry for model, or nil when it is not listed.
func (ml *ModelLoader) status(ctx context.Context, model string) (*ModelStatus, error) {
	var resp ModelsResponse
	if err := ml.api.get(ctx, "/models", &resp); err != nil {
		return nil, fmt.Errorf("failed to check model status: %w", err)
	}
	for i := range resp.Data {
		if resp.Data[i].ID == model {
			return &resp.Data[i], nil
		}
	}
	return nil, nil
}

// LoadModel asks the router to load model and waits until it is in cache.
// A model that is already loaded returns immediately.
func (ml *ModelLoader) LoadModel(ctx context.Context, model string, extraArgs []string) error {
	// A failed status check is not fatal; the load request reports real problems.
	if loaded, err := ml.IsModelLoaded(ctx, model); err == nil && loaded {
		return nil
	}

	var resp LoadModelResponse
	if err := ml.api.post(ctx, "/models/load", LoadModelRequest{Model: model, ExtraArgs: extraArgs}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("model load failed: %s", resp.Error)
	}

	// The router answers before the model is ready.
	for range ml.maxAttempts {
		if status, err := ml.status(ctx, model); err == nil && status != nil {
			if status.InCache {
				return nil
			}
			if status.failed() {
				exitCode := 0
				if status.Status.ExitCode != nil {
					exitCode = *status.Status.ExitCode
				}
				return fmt.Errorf("model %s failed to load, exit code %d", model, exitCode)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ml.pollInterval):
		}
	}

	return fmt.Errorf("model %s did not load within %s", model, time.Duration(ml.maxAttempts)*ml.pollInterval)
}
