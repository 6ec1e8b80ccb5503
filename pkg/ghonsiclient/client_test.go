package ghonsiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitProof(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit-proof" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		var req SubmitProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SubmitProofResponse{Success: true, Tx: "sig", ProofPDA: "pda", URI: req.IPFSURI, Status: "submitted"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok")
	res, err := c.SubmitProof(context.Background(), SubmitProofRequest{ProofID: "PROOF-1", IPFSURI: "ipfs://x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Success || res.Tx != "sig" || res.URI != "ipfs://x" {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing required fields"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").SubmitProof(context.Background(), SubmitProofRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Missing required fields" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	if err := New(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
