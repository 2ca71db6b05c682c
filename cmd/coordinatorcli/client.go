package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/urfave/cli"
)

// restClient is a minimal JSON-over-HTTP client for the coordinator's API.
// Grounded on lncli's getClientConn, generalized from a gRPC dial to a
// plain http.Client since the coordinator's external surface is HTTP/JSON
// (spec.md §6), not gRPC.
type restClient struct {
	baseURL string
	http    *http.Client
}

func getRESTClient(ctx *cli.Context) *restClient {
	transport := &http.Transport{}
	if ctx.GlobalBool("insecure") {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &restClient{
		baseURL: ctx.GlobalString("rpcserver"),
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (c *restClient) do(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Detail)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *restClient) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *restClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *restClient) put(path string, body, out interface{}) error {
	return c.do(http.MethodPut, path, body, out)
}

func (c *restClient) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}
