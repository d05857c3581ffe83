package gossip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayServer(t *testing.T, nodes []models.Observation) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gossip/nodes", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(relayResponse{Nodes: nodes}))
	}))

	t.Cleanup(server.Close)

	return server
}

func TestFetchSingleRelay(t *testing.T) {
	relay := relayServer(t, []models.Observation{
		{IdentityKey: "key-a", NetworkAddress: "10.0.0.1:9000", Status: models.StatusOnline},
	})

	client := NewClient([]string{relay.URL})

	observations, err := client.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "key-a", observations[0].IdentityKey)
}

func TestFetchMergesAllRelays(t *testing.T) {
	relayA := relayServer(t, []models.Observation{{IdentityKey: "key-a"}})
	relayB := relayServer(t, []models.Observation{{IdentityKey: "key-b"}})

	client := NewClient([]string{relayA.URL, relayB.URL})

	observations, err := client.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, observations, 2)
}

func TestFetchToleratesFailingRelay(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	healthy := relayServer(t, []models.Observation{{IdentityKey: "key-a"}})

	client := NewClient([]string{broken.URL, healthy.URL})

	observations, err := client.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, observations, 1)
}

func TestFetchAllRelaysDown(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	client := NewClient([]string{broken.URL})

	_, err := client.Fetch(context.Background())

	assert.ErrorIs(t, err, errAllRelaysDown)
}

func TestFetchNoEndpoints(t *testing.T) {
	client := NewClient(nil)

	_, err := client.Fetch(context.Background())

	assert.ErrorIs(t, err, errNoEndpoints)
}

func TestFetchCanceledContext(t *testing.T) {
	relay := relayServer(t, nil)
	client := NewClient([]string{relay.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
