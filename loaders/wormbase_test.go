package loaders

import (
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gzipBody(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		_, err := gz.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
	}
}

func TestFetchXRefs(t *testing.T) {
	content := "2L52.1\tWBGene00007063\tsomething else\n" +
		"incomplete-line\n" +
		"4R79.2\tWBGene00003525\n"
	srv := httptest.NewServer(gzipBody(t, content))
	defer srv.Close()

	fetcher := NewWormBaseFetcher(zap.NewNop())
	pairs, err := fetcher.FetchXRefs(srv.URL)
	require.NoError(t, err)

	assert.Equal(t, []WormBasePair{
		{SystematicName: "CELE_2L52.1", WBID: "WBGene00007063"},
		{SystematicName: "CELE_4R79.2", WBID: "WBGene00003525"},
	}, pairs)
}

func TestFetchXRefsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewWormBaseFetcher(zap.NewNop())
	_, err := fetcher.FetchXRefs(srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestFetchXRefsBadGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not gzip"))
	}))
	defer srv.Close()

	fetcher := NewWormBaseFetcher(zap.NewNop())
	_, err := fetcher.FetchXRefs(srv.URL)
	require.Error(t, err)
}
