package object_storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rakutentech/fleetbench/config"
)

// minioStorage talks to any S3 compatible endpoint. object_storage.url is the
// host:port of the endpoint, user and password are the access and secret keys.
type minioStorage struct {
	client   *minio.Client
	endpoint string
	bucket   string
	secure   bool
}

func NewMinioStorage(c *config.FleetbenchConfig) (*minioStorage, error) {
	o := c.ObjectStorage
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(o.User, o.Password, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	}
	if o.RequireProxy && c.HTTPProxyClient != nil {
		opts.Transport = c.HTTPProxyClient.Transport
	}
	client, err := minio.New(o.Url, opts)
	if err != nil {
		return nil, err
	}
	return &minioStorage{
		client:   client,
		endpoint: o.Url,
		bucket:   o.Bucket,
		secure:   o.UseSSL,
	}, nil
}

func (ms *minioStorage) GetUrl(filename string) string {
	scheme := "http"
	if ms.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, ms.endpoint, ms.bucket, filename)
}

func (ms *minioStorage) Upload(ctx context.Context, filename string, content io.Reader, contentType string) error {
	_, err := ms.client.PutObject(ctx, ms.bucket, filename, content, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (ms *minioStorage) Download(ctx context.Context, filename string) ([]byte, error) {
	obj, err := ms.client.GetObject(ctx, ms.bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, ms.ifFileNotFound(err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, ms.ifFileNotFound(err)
	}
	return data, nil
}

func (ms *minioStorage) ifFileNotFound(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return FileNotFoundError()
	}
	return err
}
