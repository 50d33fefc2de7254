package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct {
	body string
	got  string
}

func (s *staticFetcher) Download(_ context.Context, location string) (io.ReadCloser, error) {
	s.got = location
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://example.com/catalog.csv", true},
		{"ftp://ftp.example.com/pub/catalog.xlsx", true},
		{"catalog.yaml", false},
		{"/srv/data/catalog.yaml", false},
		{"./dir/with://odd/name.csv", false},
		{`C:\data\catalog.csv`, false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemote(tt.location))
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"catalog.YAML", ".yaml"},
		{"/srv/data/catalog.csv", ".csv"},
		{"https://example.com/files/catalog.xlsx?token=abc#sheet", ".xlsx"},
		{"https://example.com/export", ""},
		{"/srv/data.d/catalog", ""},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.location))
		})
	}
}

func TestRouter_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,CDB\n"), 0o644))

	r := NewRouter(HTTPOptions{}, FTPOptions{})
	body, err := r.Download(context.Background(), path)
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,CDB\n", string(data))
}

func TestRouter_MissingFile(t *testing.T) {
	r := NewRouter(HTTPOptions{}, FTPOptions{})
	_, err := r.Download(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: open")
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(HTTPOptions{}, FTPOptions{})
	s3 := &staticFetcher{body: "payload"}
	r.Register("S3", s3)

	body, err := r.Download(context.Background(), "s3://bucket/catalog.yaml")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "s3://bucket/catalog.yaml", s3.got)

	_, err = r.Download(context.Background(), "gopher://example.com/catalog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}
