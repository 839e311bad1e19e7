package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/object_storage"
	"github.com/rakutentech/fleetbench/utils"
)

const archiveTimeFormat = "20060102T150405Z"

var (
	ErrBadArchiveName  = errors.New("archive name must be a report timestamp ending in .json or .csv")
	archiveNamePattern = regexp.MustCompile(`^[0-9]{8}T[0-9]{6}Z\.(json|csv)$`)
)

// Archiver keeps a copy of every generated report in object storage.
type Archiver struct {
	storage object_storage.StorageInterface
}

func NewArchiver(storage object_storage.StorageInterface) *Archiver {
	return &Archiver{storage: storage}
}

func archivePath(matrixRunID int64, name string) string {
	return fmt.Sprintf("reports/matrix_run/%d/%s", matrixRunID, name)
}

func archiveName(r *Report, ext string) string {
	return archivePath(r.MatrixRunID, r.GeneratedAt.UTC().Format(archiveTimeFormat)+"."+ext)
}

func (a *Archiver) upload(ctx context.Context, name string, data []byte, contentType string) error {
	return utils.Retry(ctx, func() error {
		return a.storage.Upload(ctx, name, bytes.NewReader(data), contentType)
	}, nil)
}

// Archive uploads the report as JSON and CSV and returns the URL of the JSON
// copy. Uploads overwrite, so retrying them is safe.
func (a *Archiver) Archive(ctx context.Context, r *Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	jsonName := archiveName(r, "json")
	if err := a.upload(ctx, jsonName, data, "application/json"); err != nil {
		return "", err
	}
	csvData, err := r.CSV()
	if err != nil {
		return "", err
	}
	if err := a.upload(ctx, archiveName(r, "csv"), csvData, "text/csv"); err != nil {
		return "", err
	}
	url := a.storage.GetUrl(jsonName)
	log.WithField("matrix_run_id", r.MatrixRunID).Infof("Economics report archived to %s", url)
	return url, nil
}

// Fetch reads back one archived copy of a matrix run report, name being the
// last path element Archive wrote, e.g. 20240301T120000Z.csv. It returns the
// content with its content type.
func (a *Archiver) Fetch(ctx context.Context, matrixRunID int64, name string) ([]byte, string, error) {
	m := archiveNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, "", ErrBadArchiveName
	}
	data, err := a.storage.Download(ctx, archivePath(matrixRunID, name))
	if err != nil {
		return nil, "", err
	}
	if m[1] == "csv" {
		return data, "text/csv", nil
	}
	return data, "application/json", nil
}
