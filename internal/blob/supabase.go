package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Supabase talks to the Supabase Storage REST API with a service-role key.
type Supabase struct {
	BaseURL string
	Key     string
	Bucket  string
	HTTP    *http.Client
}

func NewSupabase(baseURL, key, bucket string) *Supabase {
	return &Supabase{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Bucket:  bucket,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Supabase) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.Key)
	req.Header.Set("apikey", s.Key)
}

func (s *Supabase) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	if err != nil {
		return "", err
	}
	s.authorize(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Cache-Control", "3600")
	req.Header.Set("x-upsert", "false")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("supabase storage upload: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return s.PublicURL(key), nil
}

func (s *Supabase) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	body, _ := json.Marshal(map[string][]string{"prefixes": keys})
	url := fmt.Sprintf("%s/storage/v1/object/%s", s.BaseURL, s.Bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("supabase storage delete: %s", resp.Status)
	}
	return nil
}

func (s *Supabase) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, key)
}
