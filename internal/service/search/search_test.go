package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *Index {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &Index{ES: client, Name: "products"}
}

func TestDecodeHits(t *testing.T) {
	body := `{"hits":{"total":{"value":2},"hits":[{"_source":{"id":5}},{"_source":{"id":3}}]}}`

	total, ids, err := decodeHits(strings.NewReader(body))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{5, 3}, ids)
}

func TestSearchBody(t *testing.T) {
	b := searchBody("kettle", 20, 10)
	assert.Equal(t, 20, b["from"])
	mm := b["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "kettle", mm["query"])
	assert.Contains(t, mm["fields"], "title^2")
}

func TestIndex_Search(t *testing.T) {
	ix := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/products/_search"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		var q map[string]any
		assert.NoError(t, json.Unmarshal(raw, &q))
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_source":{"id":9}}]}}`))
	})

	total, ids, err := ix.Search(context.Background(), "tea", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uint{9}, ids)
}

func TestIndex_IndexProduct_Error(t *testing.T) {
	ix := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := ix.IndexProduct(context.Background(), ProductDoc{ID: 1, Title: "x"})
	require.ErrorContains(t, err, "mapper_parsing_exception")
}

func TestIndex_DeleteProduct_MissingIsFine(t *testing.T) {
	ix := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	require.NoError(t, ix.DeleteProduct(context.Background(), 1))
}
