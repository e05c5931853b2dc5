package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", WithBaseURL(srv.URL))
}

func TestSearchContactByEmail_Found(t *testing.T) {
	var gotAuth string
	var gotBody searchRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crm/v3/objects/contacts/search", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":1,"results":[{"id":"101","properties":{"email":"ada@example.com","firstname":"Ada"}}]}`))
	})

	contact, err := client.SearchContactByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "101", contact.ID)
	assert.Equal(t, "Ada", contact.Properties["firstname"])

	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, gotBody.FilterGroups, 1)
	require.Len(t, gotBody.FilterGroups[0].Filters, 1)
	f := gotBody.FilterGroups[0].Filters[0]
	assert.Equal(t, "email", f.PropertyName)
	assert.Equal(t, "EQ", f.Operator)
	assert.Equal(t, "ada@example.com", f.Value)
}

func TestSearchContactByEmail_NoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"results":[]}`))
	})

	contact, err := client.SearchContactByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestSearchContactByEmail_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	})

	_, err := client.SearchContactByEmail(context.Background(), "ada@example.com")
	assert.Error(t, err)
}

func TestCreateContact(t *testing.T) {
	var gotBody writeRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crm/v3/objects/contacts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"201","properties":{"email":"ada@example.com"}}`))
	})

	contact, err := client.CreateContact(context.Background(), map[string]string{
		"email":     "ada@example.com",
		"firstname": "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "201", contact.ID)
	assert.Equal(t, "Ada", gotBody.Properties["firstname"])
}

func TestUpdateContact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/crm/v3/objects/contacts/101", r.URL.Path)

		_, _ = w.Write([]byte(`{"id":"101","properties":{"company":"Analytical Engines"}}`))
	})

	contact, err := client.UpdateContact(context.Background(), "101", map[string]string{
		"company": "Analytical Engines",
	})
	require.NoError(t, err)
	assert.Equal(t, "101", contact.ID)
}

func TestDoJSON_RetriesOnTransientStatus(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"total":0,"results":[]}`))
	})

	contact, err := client.SearchContactByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, contact)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDoJSON_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad property"}`))
	})

	_, err := client.CreateContact(context.Background(), map[string]string{"email": "x"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SearchContactByEmail(context.Background(), "ada@example.com")
	assert.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}
