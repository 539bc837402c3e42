package repository

import (
	"context"
	"fmt"
	"strings"

	"SignalScan/internal/domain/repository"
	apphttp "SignalScan/pkg/http"
)

// FirebaseStore talks to the Firebase Realtime Database REST API.
// Set is a PUT on "<path>.json", Push a POST that returns {"name": "<key>"}.
type FirebaseStore struct {
	client  *apphttp.Client
	baseURL string
	auth    string
}

// NewFirebaseStore builds a store rooted at databaseURL. auth is sent as the
// "auth" query parameter when non-empty.
func NewFirebaseStore(client *apphttp.Client, databaseURL, auth string) repository.Store {
	return &FirebaseStore{
		client:  client,
		baseURL: strings.TrimRight(databaseURL, "/"),
		auth:    auth,
	}
}

type pushResponse struct {
	Name string `json:"name"`
}

func (s *FirebaseStore) Set(ctx context.Context, path string, value any) error {
	if err := s.client.SendAndParse(ctx, s.request(apphttp.MethodPut, path, value), nil); err != nil {
		return fmt.Errorf("firebase set %s: %w", path, err)
	}
	return nil
}

func (s *FirebaseStore) Push(ctx context.Context, path string, value any) (string, error) {
	var resp pushResponse
	if err := s.client.SendAndParse(ctx, s.request(apphttp.MethodPost, path, value), &resp); err != nil {
		return "", fmt.Errorf("firebase push %s: %w", path, err)
	}
	if resp.Name == "" {
		return "", fmt.Errorf("firebase push %s: empty key in response", path)
	}
	return resp.Name, nil
}

// Health reads the shallow root, which is cheap and exercises auth.
func (s *FirebaseStore) Health(ctx context.Context) error {
	req := s.request(apphttp.MethodGet, "/", nil)
	req.QueryParams["shallow"] = []string{"true"}
	return s.client.SendAndParse(ctx, req, nil)
}

func (s *FirebaseStore) Close() error { return nil }

func (s *FirebaseStore) request(method, path string, body any) *apphttp.RequestOptions {
	opts := &apphttp.RequestOptions{
		Method:      method,
		URL:         s.baseURL + "/" + strings.Trim(path, "/") + ".json",
		Body:        body,
		QueryParams: map[string][]string{},
	}
	if s.auth != "" {
		opts.QueryParams["auth"] = []string{s.auth}
	}
	return opts
}
