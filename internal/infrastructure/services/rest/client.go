// Package rest implements the collaborator ports as JSON-over-HTTP clients.
// Selected over the sim implementations via configuration; every call is
// bounded by the shared client timeout.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type client struct {
	http *http.Client
	base string
}

func newClient(base string, timeout time.Duration) client {
	return client{
		http: &http.Client{Timeout: timeout},
		base: base,
	}
}

// postJSON sends a POST and decodes the JSON response. Any non-2xx status is
// a transport-class failure for the calling step.
func (c client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("rest: marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rest: build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("rest: %s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest: decode %s: %w", path, err)
	}
	return nil
}
