package hubspot_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/norbye/interesse/pkg/hubspot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedItem struct {
	Name string `json:"name"`
}

func TestFetchAll_FollowsCursorUntilAbsent(t *testing.T) {
	t.Parallel()

	var afterParams []string

	pages := []string{
		`{"results": [{"name": "a"}, {"name": "b"}], "paging": {"next": {"after": "p2"}}}`,
		`{"results": [{"name": "c"}], "paging": {"next": {"after": "p3"}}}`,
		`{}`,
	}

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		afterParams = append(afterParams, request.URL.Query().Get("after"))

		require.Less(t, requestCount, len(pages))
		_, _ = writer.Write([]byte(pages[requestCount]))
		requestCount++
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	items, err := hubspot.FetchAll[namedItem](context.Background(), client, server.URL+"/list", "", "items", 0)
	require.NoError(t, err)

	assert.Equal(t, []namedItem{{Name: "a"}, {Name: "b"}, {Name: "c"}}, items)
	assert.Equal(t, 3, requestCount)
	assert.Equal(t, []string{"", "p2", "p3"}, afterParams)
}

func TestFetchAll_PassesPropertiesAndLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "email", request.URL.Query().Get("properties"))
		assert.Equal(t, "25", request.URL.Query().Get("limit"))

		_, _ = writer.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	items, err := hubspot.FetchAll[namedItem](context.Background(), client, server.URL+"/list", "email", "items", 25)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchAll_DefaultsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, fmt.Sprintf("%d", hubspot.DefaultPageLimit), request.URL.Query().Get("limit"))

		_, _ = writer.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	_, err := hubspot.FetchAll[namedItem](context.Background(), client, server.URL+"/list", "", "items", 0)
	require.NoError(t, err)
}

func TestFetchAll_MissingResultsFieldIsEmptyPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = writer.Write([]byte(`{"paging": {}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	items, err := hubspot.FetchAll[namedItem](context.Background(), client, server.URL+"/list", "", "items", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchAll_PropagatesRequestError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
		_, _ = writer.Write([]byte(`{"message": "scope missing"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	_, err := hubspot.FetchAll[namedItem](context.Background(), client, server.URL+"/list", "", "items", 0)
	require.Error(t, err)

	reqErr, ok := hubspot.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, reqErr.Status)
}
