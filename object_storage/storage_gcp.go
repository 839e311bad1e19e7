package object_storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	htransport "google.golang.org/api/transport/http"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/rakutentech/fleetbench/config"
)

type gcpStorage struct {
	client *storage.Client
	bucket string
}

func NewGcpStorage(c *config.FleetbenchConfig) (*gcpStorage, error) {
	ctx := context.Background()
	if c.ObjectStorage.RequireProxy {
		// GCP's storage client needs OAuth2 token
		// The golang/oauth2 lib relies on the httpClient passed in it's context to make http calls
		log.Info("Setting up GCP OAuth client with proxy")
		ctx = context.WithValue(context.Background(), oauth2.HTTPClient, c.HTTPProxyClient)
	}
	client, err := newStorageClient(ctx, c)
	if err != nil {
		return nil, err
	}
	return &gcpStorage{
		client: client,
		bucket: c.ObjectStorage.Bucket,
	}, nil
}

func newStorageClient(ctx context.Context, c *config.FleetbenchConfig) (*storage.Client, error) {
	// in order to use proxy we need to supply our own http.Client
	// But a new http.Client from net/http will not authenticate with gcp
	// And for gcp's http.Client it also needs to know scope before setting up auth
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeFullControl)
	if err != nil {
		return nil, err
	}
	hc, _, err := htransport.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	if c.ObjectStorage.RequireProxy && c.HTTPProxyClient != nil {
		log.Info("Setting up GCP storage client with proxy")
		baseTransportWithProxy, err := htransport.NewTransport(ctx, c.HTTPProxyClient.Transport,
			option.WithCredentials(creds))
		if err != nil {
			return nil, err
		}
		hc.Transport.(*oauth2.Transport).Base = baseTransportWithProxy
	}
	return storage.NewClient(ctx, option.WithHTTPClient(hc))
}

func (gs *gcpStorage) GetUrl(filename string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", gs.bucket, filename)
}

func (gs *gcpStorage) Upload(ctx context.Context, filename string, content io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute*5)
	defer cancel()

	wc := gs.client.Bucket(gs.bucket).Object(filename).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, content); err != nil {
		log.Error(err)
		wc.Close()
		return err
	}
	return wc.Close()
}

func (gs *gcpStorage) Download(ctx context.Context, filename string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute*5)
	defer cancel()
	rc, err := gs.client.Bucket(gs.bucket).Object(filename).NewReader(ctx)
	if err != nil {
		return nil, gs.IfFileNotFoundWrapper(err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (gs *gcpStorage) IfFileNotFoundWrapper(err error) error {
	if err == storage.ErrObjectNotExist || strings.Contains(err.Error(), "object doesn't exist") {
		return FileNotFoundError()
	}
	return err
}
