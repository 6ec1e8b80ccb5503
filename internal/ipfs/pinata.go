// Package ipfs pins proof documents and metadata through the Pinata API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("ipfs: pinata JWT not configured")

type Config struct {
	JWT        string
	APIURL     string
	GatewayURL string
	HTTPClient *http.Client
}

type Client struct {
	jwt     string
	api     string
	gateway string
	http    *http.Client
}

// PinResult mirrors Pinata's pin response.
type PinResult struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	api := cfg.APIURL
	if api == "" {
		api = "https://api.pinata.cloud"
	}
	gw := cfg.GatewayURL
	if gw == "" {
		gw = "https://gateway.pinata.cloud"
	}
	return &Client{
		jwt:     cfg.JWT,
		api:     strings.TrimRight(api, "/"),
		gateway: strings.TrimRight(gw, "/"),
		http:    hc,
	}
}

func (c *Client) Configured() bool { return c != nil && c.jwt != "" }

type pinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

// PinJSON pins content as a JSON document named name.
func (c *Client) PinJSON(ctx context.Context, content any, name string) (*PinResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"pinataContent":  content,
		"pinataMetadata": pinMetadata{Name: name},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doPin(req)
}

// PinFile streams r as a multipart upload.
func (c *Client) PinFile(ctx context.Context, name string, r io.Reader) (*PinResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			part, err := mw.CreateFormFile("file", name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, r); err != nil {
				return err
			}
			meta, _ := json.Marshal(pinMetadata{
				Name:      name,
				KeyValues: map[string]string{"type": "document-proof", "uploadedAt": time.Now().UTC().Format(time.RFC3339)},
			})
			if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
				return err
			}
			if err := mw.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api+"/pinning/pinFileToIPFS", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doPin(req)
}

func (c *Client) Unpin(ctx context.Context, cid string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.api+"/pinning/unpin/"+cid, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) doPin(req *http.Request) (*PinResult, error) {
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var out PinResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ipfs: decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return nil, errors.New("ipfs: pin response without hash")
	}
	return &out, nil
}

// checkStatus turns a non-2xx response into an error with Pinata's reason when
// the body carries one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body struct {
		Error any `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	reason := resp.Status
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		switch e := body.Error.(type) {
		case string:
			reason = e
		case map[string]any:
			if r, ok := e["reason"].(string); ok {
				reason = r
			}
		}
	}
	return fmt.Errorf("pinata upload failed: %s", reason)
}

func (c *Client) GatewayURL(cid string) string { return c.gateway + "/ipfs/" + cid }

// CIDFromURI extracts the CID from an ipfs:// URI or a gateway URL.
func CIDFromURI(uri string) (string, bool) {
	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		cid = strings.TrimPrefix(cid, "ipfs/")
		return cid, cid != ""
	}
	if _, rest, ok := strings.Cut(uri, "/ipfs/"); ok {
		cid, _, _ := strings.Cut(rest, "/")
		return cid, cid != ""
	}
	return "", false
}

// AlternativeGateways lists public gateways to try when the primary one is down.
func AlternativeGateways(cid string) []string {
	return []string{
		"https://ipfs.io/ipfs/" + cid,
		"https://cloudflare-ipfs.com/ipfs/" + cid,
		"https://dweb.link/ipfs/" + cid,
	}
}

// Fetch loads a pinned JSON document through the gateway.
func (c *Client) Fetch(ctx context.Context, cid string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayURL(cid), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to retrieve from pinata: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
