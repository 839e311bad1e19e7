package object_storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rakutentech/fleetbench/config"
)

type nexusStorage struct {
	nexusURL   string
	username   string
	password   string
	httpClient *http.Client
}

func NewNexusStorage(c *config.FleetbenchConfig) nexusStorage {
	o := c.ObjectStorage
	client := c.HTTPClient
	if o.RequireProxy && c.HTTPProxyClient != nil {
		client = c.HTTPProxyClient
	}
	if client == nil {
		client = http.DefaultClient
	}
	return nexusStorage{
		nexusURL:   o.Url,
		username:   o.User,
		password:   o.Password,
		httpClient: client,
	}
}

func (n nexusStorage) GetUrl(filename string) string {
	return fmt.Sprintf("%s/%s", n.nexusURL, filename)
}

func (n nexusStorage) do(ctx context.Context, method, filename string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, n.GetUrl(filename), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.SetBasicAuth(n.username, n.password)
	return n.httpClient.Do(req)
}

func (n nexusStorage) Upload(ctx context.Context, filename string, content io.Reader, contentType string) error {
	resp, err := n.do(ctx, http.MethodPut, filename, content, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return fmt.Errorf("Bad response from Nexus uploading %s: %d", filename, resp.StatusCode)
}

func (n nexusStorage) Download(ctx context.Context, filename string) ([]byte, error) {
	resp, err := n.do(ctx, http.MethodGet, filename, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, FileNotFoundError()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Bad response from Nexus downloading %s: %d", filename, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
