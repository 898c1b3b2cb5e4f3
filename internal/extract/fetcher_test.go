package extract

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"FlightSync/internal/config"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testArchivePrefix = "On_Time_Reporting_Carrier_On_Time_Performance_1987_present"
	testEntryPrefix   = "On_Time_Reporting_Carrier_On_Time_Performance_(1987_present)"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testSourceConfig(t *testing.T, baseURL string) *config.SourceConfig {
	return &config.SourceConfig{
		BaseURL:       baseURL,
		ArchivePrefix: testArchivePrefix,
		EntryPrefix:   testEntryPrefix,
		Timeout:       5,
		DownloadDir:   filepath.Join(t.TempDir(), "data"),
	}
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetcherNames(t *testing.T) {
	f := NewFetcher(testSourceConfig(t, "https://transtats.bts.gov/PREZIP/"), quietLogger())

	assert.Equal(t, testArchivePrefix+"_2023_3.zip", f.ArchiveName(2023, 3))
	assert.Equal(t, testEntryPrefix+"_2023_3.csv", f.EntryName(2023, 3))
	assert.Equal(t, "https://transtats.bts.gov/PREZIP/"+testArchivePrefix+"_2023_3.zip", f.ArchiveURL(2023, 3))

	padded := testSourceConfig(t, "https://example.test")
	padded.PadMonth = true
	f = NewFetcher(padded, quietLogger())
	assert.Equal(t, testArchivePrefix+"_2023_03.zip", f.ArchiveName(2023, 3))
	assert.Equal(t, testEntryPrefix+"_2023_11.csv", f.EntryName(2023, 11))
}

func TestFetcherDownload(t *testing.T) {
	entry := testEntryPrefix + "_2023_3.csv"
	payload := zipBytes(t, map[string]string{
		entry:        "header\nrow\n",
		"readme.txt": "ignored",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PREZIP/"+testArchivePrefix+"_2023_3.zip", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := testSourceConfig(t, srv.URL+"/PREZIP")
	path, err := NewFetcher(cfg, quietLogger()).Download(context.Background(), 2023, 3)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.DownloadDir, entry), path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "header\nrow\n", string(body))

	// 只留下解压出的 csv，临时压缩包已删除
	files, err := os.ReadDir(cfg.DownloadDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, entry, files[0].Name())
}

func TestFetcherDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(testSourceConfig(t, srv.URL), quietLogger()).Download(context.Background(), 2023, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 404")
}

func TestFetcherDownloadMissingEntry(t *testing.T) {
	payload := zipBytes(t, map[string]string{"other.csv": "x"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := testSourceConfig(t, srv.URL)
	_, err := NewFetcher(cfg, quietLogger()).Download(context.Background(), 2023, 3)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	files, err := os.ReadDir(cfg.DownloadDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFetcherDownloadCorruptArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a zip file"))
	}))
	defer srv.Close()

	_, err := NewFetcher(testSourceConfig(t, srv.URL), quietLogger()).Download(context.Background(), 2023, 3)
	assert.Error(t, err)
}

func TestFetcherDownloadCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("never read"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(testSourceConfig(t, srv.URL), quietLogger()).Download(ctx, 2023, 3)
	assert.ErrorIs(t, err, context.Canceled)
}
