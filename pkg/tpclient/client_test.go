package tpclient_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/tastypie-client/internal/testutil"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
	"github.com/fivetwenty-io/tastypie-client/pkg/tpclient"
)

func newService(t *testing.T) *testutil.FakeService {
	t.Helper()

	fake := testutil.NewFakeService(t)
	fake.Add("user", 1, map[string]any{"username": "bob"})
	fake.Add("entry", 7, map[string]any{"title": "hello", "user": fake.ResourceURI("user", 1)})

	return fake
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := tpclient.New(context.Background(), nil)
		require.ErrorIs(t, err, tastypie.ErrConfigRequired)
	})

	t.Run("requires service URL", func(t *testing.T) {
		t.Parallel()

		_, err := tpclient.New(context.Background(), &tastypie.Config{})
		require.ErrorIs(t, err, tastypie.ErrServiceURLRequired)
	})

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		fake := newService(t)

		client, err := tpclient.New(context.Background(), &tastypie.Config{ServiceURL: fake.URL()})
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		assert.Equal(t, []string{"entry", "user"}, client.Endpoints())
	})

	t.Run("adds the trailing slash", func(t *testing.T) {
		t.Parallel()

		fake := newService(t)
		config := &tastypie.Config{ServiceURL: strings.TrimSuffix(fake.URL(), "/")}

		client, err := tpclient.New(context.Background(), config)
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		assert.Equal(t, fake.URL(), client.Service().URL)
	})

	t.Run("leaves the caller's config untouched", func(t *testing.T) {
		t.Parallel()

		fake := newService(t)
		serviceURL := strings.TrimSuffix(fake.URL(), "/")
		config := &tastypie.Config{ServiceURL: serviceURL}

		client, err := tpclient.New(context.Background(), config)
		require.NoError(t, err)

		defer func() { _ = client.Close() }()

		assert.Equal(t, serviceURL, config.ServiceURL)
		assert.Zero(t, config.HTTPTimeout)

		again, err := tpclient.New(context.Background(), config)
		require.NoError(t, err)

		defer func() { _ = again.Close() }()

		assert.Equal(t, client.Service().URL, again.Service().URL)

		natsConfig := &tastypie.Config{
			ServiceURL: fake.URL(),
			NATS:       &tastypie.NATSConfig{URL: "nats://127.0.0.1:1", Subject: "tastypie.requests"},
		}

		_, err = tpclient.New(context.Background(), natsConfig)
		require.Error(t, err)
		assert.Zero(t, natsConfig.NATS.Timeout)
	})

	t.Run("wraps discovery failures", func(t *testing.T) {
		t.Parallel()

		fake := newService(t)
		fake.Fail(testutil.DefaultBasePath+"/", 500)

		_, err := tpclient.New(context.Background(), &tastypie.Config{ServiceURL: fake.URL()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create new client")
		assert.True(t, tastypie.IsBadHTTPStatus(err))
	})
}

func TestNewWithURL(t *testing.T) {
	t.Parallel()

	fake := newService(t)

	client, err := tpclient.NewWithURL(context.Background(), fake.URL())
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	entry, err := client.Get(context.Background(), "entry", 7)
	require.NoError(t, err)

	user, err := entry.Get("user")
	require.NoError(t, err)

	proxy, ok := user.(*tastypie.ResourceProxy)
	require.True(t, ok)

	name, err := proxy.Get(context.Background(), "username")
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestNewWithAPIKey(t *testing.T) {
	t.Parallel()

	fake := newService(t)

	client, err := tpclient.NewWithAPIKey(context.Background(), fake.URL(), "bob", "secret")
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	assert.NotEmpty(t, client.Endpoints())
}

func TestNewWithNATS(t *testing.T) {
	t.Parallel()

	t.Run("fails without a reachable server", func(t *testing.T) {
		t.Parallel()

		_, err := tpclient.NewWithNATS(context.Background(), "http://localhost:8000/api/v1/", "nats://127.0.0.1:1", "")
		require.Error(t, err)
	})

	t.Run("live", func(t *testing.T) {
		t.Parallel()

		natsURL := os.Getenv("TASTYPIE_TEST_NATS_URL")
		if natsURL == "" {
			t.Skip("TASTYPIE_TEST_NATS_URL not set")
		}

		fake := newService(t)

		_, err := tpclient.NewWithNATS(context.Background(), fake.URL(), natsURL, "tpclient.test.nobridge")
		require.Error(t, err, "no bridge listens on the subject")
	})
}
