package hubspot_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/norbye/interesse/pkg/hubspot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL, token string) *hubspot.Client {
	return hubspot.NewClient(hubspot.Config{
		AccessToken:  token,
		CRMBaseURL:   serverURL + "/crm",
		CRMV4BaseURL: serverURL + "/crmv4",
		HubDBBaseURL: serverURL + "/hubdb",
		CMSBaseURL:   serverURL + "/cms",
	}, nil)
}

func TestClient_Do_AttachesCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer secret-token", request.Header.Get("Authorization"))
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "secret-token")

	raw, err := client.Do(context.Background(), http.MethodGet, server.URL+"/crm/owners", nil, "test")
	require.NoError(t, err)

	var response map[string]any

	require.NoError(t, json.Unmarshal(raw, &response))
	assert.Equal(t, true, response["ok"])
}

func TestClient_Do_MarshalsRequestBody(t *testing.T) {
	t.Parallel()

	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))

		writer.WriteHeader(http.StatusCreated)
		_, _ = writer.Write([]byte(`{"id": "1"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	_, err := client.Do(context.Background(), http.MethodPost, server.URL+"/crm/tasks", map[string]any{
		"properties": map[string]string{"hs_task_subject": "follow up"},
	}, "test")
	require.NoError(t, err)

	properties, ok := received["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "follow up", properties["hs_task_subject"])
}

func TestClient_Do_WrapsFailureStatusAndDetails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"message": "invalid table"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	_, err := client.Do(context.Background(), http.MethodGet, server.URL+"/hubdb/tables/9/rows", nil, "fetchRows")
	require.Error(t, err)

	reqErr, ok := hubspot.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "Bad Request", reqErr.StatusText)
	assert.Equal(t, "fetchRows", reqErr.Context)
	assert.Equal(t, "invalid table", reqErr.Details["message"])
}

func TestClient_Do_NonJSONErrorBodyYieldsEmptyDetails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = writer.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	_, err := client.Do(context.Background(), http.MethodGet, server.URL+"/crm/owners", nil, "test")
	require.Error(t, err)

	reqErr, ok := hubspot.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Empty(t, reqErr.Details)
}

func TestClient_Do_NoContentIsEmptySuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "token")

	raw, err := client.Do(context.Background(), http.MethodDelete, server.URL+"/crm/tasks/1", nil, "deleteTask")
	require.NoError(t, err)
	assert.Nil(t, raw)
}
