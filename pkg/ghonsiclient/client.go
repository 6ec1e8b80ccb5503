// Package ghonsiclient is a small HTTP client for the Ghonsi Proof API.
package ghonsiclient

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

// SubmitProofRequest mirrors the body of POST /api/submit-proof.
type SubmitProofRequest struct {
	ProofID       string `json:"proofId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ProofType     string `json:"proofType"`
	IPFSURI       string `json:"ipfsUri"`
	WalletAddress string `json:"walletAddress"`
}

type SubmitProofResponse struct {
	Success   bool   `json:"success"`
	Tx        string `json:"tx"`
	ProofPDA  string `json:"proofPda"`
	Mint      string `json:"mint,omitempty"`
	URI       string `json:"uri"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ChainStatus struct {
	ProofID     string   `json:"proofId"`
	OnChain     bool     `json:"onChain"`
	ChainStatus string   `json:"chainStatus,omitempty"`
	ChainError  string   `json:"chainError,omitempty"`
	Tx          string   `json:"tx,omitempty"`
	ProofPDA    string   `json:"proofPda,omitempty"`
	Mint        string   `json:"mint,omitempty"`
	TxURL       string   `json:"explorerTx,omitempty"`
	AddressURL  string   `json:"explorerAddress,omitempty"`
	IPFSURL     string   `json:"ipfsUrl,omitempty"`
	Gateways    []string `json:"gateways,omitempty"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client
}

func New(baseURL, accessToken string) *Client {
	return &Client{
		BaseURL:     normalizeBaseURL(baseURL),
		AccessToken: strings.TrimSpace(accessToken),
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

func normalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

func (c *Client) SubmitProof(ctx context.Context, req SubmitProofRequest) (*SubmitProofResponse, error) {
	var out SubmitProofResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit-proof", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChainStatus(ctx context.Context, proofID string) (*ChainStatus, error) {
	var out ChainStatus
	if err := c.do(ctx, http.MethodGet, "/v1/proofs/"+proofID+"/chain", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
