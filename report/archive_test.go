package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rakutentech/fleetbench/object_storage"
	"github.com/rakutentech/fleetbench/utils"
)

type memoryStorage struct {
	files    map[string][]byte
	failures int
}

func (m *memoryStorage) Upload(ctx context.Context, filename string, content io.Reader, contentType string) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("storage unavailable")
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(content); err != nil {
		return err
	}
	m.files[filename] = buf.Bytes()
	return nil
}

func (m *memoryStorage) GetUrl(filename string) string {
	return "https://storage.local/" + filename
}

func (m *memoryStorage) Download(ctx context.Context, filename string) ([]byte, error) {
	data, ok := m.files[filename]
	if !ok {
		return nil, object_storage.FileNotFoundError()
	}
	return data, nil
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestArchive(t *testing.T) {
	interval := utils.RetryInterval
	utils.RetryInterval = time.Millisecond
	defer func() { utils.RetryInterval = interval }()

	storage := &memoryStorage{files: map[string][]byte{}, failures: 2}
	r := buildReport(t, newFakeSources())
	url, err := NewArchiver(storage).Archive(context.Background(), r)
	assert.Nil(t, err)
	assert.Equal(t, "https://storage.local/reports/matrix_run/7/20240301T120000Z.json", url)
	assert.Contains(t, string(storage.files["reports/matrix_run/7/20240301T120000Z.json"]), `"matrix_run_id":7`)
	assert.Contains(t, storage.files, "reports/matrix_run/7/20240301T120000Z.csv")
}

func TestFetchArchive(t *testing.T) {
	storage := &memoryStorage{files: map[string][]byte{}}
	a := NewArchiver(storage)
	r := buildReport(t, newFakeSources())
	_, err := a.Archive(context.Background(), r)
	assert.NoError(t, err)

	data, contentType, err := a.Fetch(context.Background(), 7, "20240301T120000Z.csv")
	assert.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasPrefix(splitLines(string(data))[0], "rank,item_id"))

	_, contentType, err = a.Fetch(context.Background(), 7, "20240301T120000Z.json")
	assert.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	_, _, err = a.Fetch(context.Background(), 8, "20240301T120000Z.json")
	assert.Equal(t, object_storage.FileNotFoundError(), err)

	for _, name := range []string{"../../secrets.json", "20240301T120000Z.txt", ""} {
		_, _, err = a.Fetch(context.Background(), 7, name)
		assert.ErrorIs(t, err, ErrBadArchiveName)
	}
}
