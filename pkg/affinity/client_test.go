package affinity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanna95/trevilleroofing/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL), WithRateLimit(0))
}

const pageOne = `{
	"organizations": [
		{
			"id": 101,
			"name": "Apex Roofing",
			"domain": "apexroofing.com",
			"interaction_dates": {"last_email_date": "2024-01-05"},
			"interactions": {
				"last_interaction": {"date": "2024-01-05", "person_ids": [7, 9]}
			}
		},
		{
			"id": 102,
			"name": "No History Holdings",
			"domain": "nohistory.com",
			"interaction_dates": {},
			"interactions": {}
		}
	],
	"next_page_token": "tok-2"
}`

const pageTwo = `{
	"organizations": [
		{
			"id": 103,
			"name": "Beta Builders",
			"domain": "betabuilders.com",
			"interaction_dates": {"last_event_date": "2023-11-30"},
			"interactions": {
				"last_interaction": {"date": "2023-11-30", "person_ids": [12]}
			}
		}
	]
}`

func TestSearchOrganizations_PaginatesAndFilters(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/organizations", r.URL.Path)
		assert.Equal(t, "roofing", r.URL.Query().Get("term"))
		assert.Equal(t, "true", r.URL.Query().Get("with_interaction_dates"))
		assert.Equal(t, "true", r.URL.Query().Get("with_interaction_persons"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Empty(t, user)
		assert.Equal(t, "test-api-key", pass)

		switch r.URL.Query().Get("page_token") {
		case "":
			fmt.Fprint(w, pageOne)
		case "tok-2":
			fmt.Fprint(w, pageTwo)
		default:
			t.Fatalf("unexpected page token %q", r.URL.Query().Get("page_token"))
		}
	})

	orgs, err := c.SearchOrganizations(context.Background(), "roofing")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, orgs, 2, "organizations without interactions are dropped")

	assert.Equal(t, Organization{
		Name:                       "Apex Roofing",
		Domain:                     "apexroofing.com",
		LatestInteractionDate:      "2024-01-05",
		LatestInteractionPersonIDs: "7,9",
		SearchTerm:                 "roofing",
		AffinityID:                 101,
	}, orgs[0])
	assert.Equal(t, "Beta Builders", orgs[1].Name)
	assert.Equal(t, "12", orgs[1].LatestInteractionPersonIDs)
}

func TestSearchOrganizations_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
	})

	_, err := c.SearchOrganizations(context.Background(), "roofing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSearchOrganizations_RetriesTransientStatus(t *testing.T) {
	calls := 0
	var c Client
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, pageTwo)
	}
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	c = NewClient("test-api-key",
		WithBaseURL(srv.URL),
		WithRateLimit(0),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}))

	orgs, err := c.SearchOrganizations(context.Background(), "roofing")
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, 3, calls)
}

func TestSearchOrganizations_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := c.SearchOrganizations(context.Background(), "roofing")
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	orgs := []Organization{
		{Name: "Apex Roofing", Domain: "apexroofing.com", SearchTerm: "roofing"},
		{Name: "APEX ROOFING ", Domain: " ApexRoofing.com", SearchTerm: "apex"},
		{Name: "Apex Roofing", Domain: "", SearchTerm: "apex"},
		{Name: "Beta Builders", Domain: "betabuilders.com"},
	}
	out := Dedupe(orgs)
	require.Len(t, out, 3)
	// First occurrence wins, including its search term.
	assert.Equal(t, "roofing", out[0].SearchTerm)
	assert.Empty(t, out[1].Domain)
	assert.Equal(t, "Beta Builders", out[2].Name)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
