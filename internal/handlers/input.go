package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// Request body sources accepted by POST /ask.
const (
	SourceJSON = "json"
	SourceForm = "form"
)

const maxBodyBytes = 1 << 20

var (
	// errQueryRequired is returned when a JSON or form body carries no query.
	errQueryRequired = errors.New("A 'query' parameter is required.")
	// errUnsupportedMediaType is returned when the body is neither JSON nor a form.
	errUnsupportedMediaType = errors.New("Content-Type must be application/json, application/x-www-form-urlencoded or multipart/form-data.")
)

// AskInput is a POST /ask request normalised from either accepted body shape.
type AskInput struct {
	Source string
	Query  string
	TopK   int
}

// AskRequest represents the JSON request payload for POST /ask.
//
// swagger:model AskRequest
type AskRequest struct {
	// The policy question
	Query *string `json:"query"`
	// Number of policy chunks to retrieve (default 3, at most 10)
	TopK *int `json:"top_k,omitempty"`
}

// ParseAskInput reads the query and top_k from a JSON or form body.
// A missing top_k becomes defaultTopK and values above maxTopK are lowered to maxTopK.
// Values below 1 are left for the service to reject.
func ParseAskInput(r *http.Request, defaultTopK, maxTopK int) (AskInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		in   AskInput
		topK *int
		err  error
	)
	switch mediaType {
	case "application/json":
		in.Source = SourceJSON
		in.Query, topK, err = parseJSONBody(r)
	case "application/x-www-form-urlencoded", "multipart/form-data":
		in.Source = SourceForm
		in.Query, topK, err = parseFormBody(r)
	default:
		return AskInput{}, errUnsupportedMediaType
	}
	if err != nil {
		return AskInput{}, err
	}

	in.TopK = defaultTopK
	if topK != nil {
		in.TopK = *topK
	}
	if maxTopK > 0 && in.TopK > maxTopK {
		in.TopK = maxTopK
	}
	return in, nil
}

func parseJSONBody(r *http.Request) (string, *int, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read request body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil, errQueryRequired
	}

	var req AskRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Query == nil {
		return "", nil, errQueryRequired
	}
	return *req.Query, req.TopK, nil
}

func parseFormBody(r *http.Request) (string, *int, error) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", nil, fmt.Errorf("invalid form body: %w", err)
	}
	if !r.PostForm.Has("query") {
		return "", nil, errQueryRequired
	}

	query := r.PostForm.Get("query")
	raw := r.PostForm.Get("top_k")
	if raw == "" {
		return query, nil, nil
	}
	topK, err := strconv.Atoi(raw)
	if err != nil {
		return "", nil, fmt.Errorf("top_k must be an integer, got %q", raw)
	}
	return query, &topK, nil
}
