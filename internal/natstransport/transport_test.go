package natstransport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tphttp "github.com/fivetwenty-io/tastypie-client/internal/http"
	"github.com/fivetwenty-io/tastypie-client/internal/natstransport"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

type stubTransport struct {
	requests []*tastypie.Request
	resp     *tastypie.Response
	err      error
}

func (s *stubTransport) Do(ctx context.Context, req *tastypie.Request) (*tastypie.Response, error) {
	s.requests = append(s.requests, req)

	return s.resp, s.err
}

func TestRequestRoundTrip(t *testing.T) {
	t.Parallel()

	req := &tastypie.Request{
		Method:  http.MethodGet,
		URL:     "http://h/api/1/entry/?user=bob",
		Headers: http.Header{"Authorization": []string{"ApiKey bob:key"}},
	}

	msg, err := natstransport.EncodeRequest("tastypie.get", req)
	require.NoError(t, err)
	assert.Equal(t, "tastypie.get", msg.Subject)
	assert.Equal(t, "http://h/api/1/entry/?user=bob", string(msg.Data))

	decoded, err := natstransport.DecodeRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req.URL, decoded.URL)
	assert.Equal(t, http.MethodGet, decoded.Method)
	assert.Equal(t, "ApiKey bob:key", decoded.Headers.Get("Authorization"))

	_, err = natstransport.EncodeRequest("tastypie.get", &tastypie.Request{})
	require.ErrorIs(t, err, natstransport.ErrNoURL)
}

func TestResponseRoundTrip(t *testing.T) {
	t.Parallel()

	msg := natstransport.EncodeResponse(&tastypie.Response{
		StatusCode: 404,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"error_message": "gone"}`),
	}, nil)

	resp, err := natstransport.DecodeResponse(msg)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))
	assert.JSONEq(t, `{"error_message": "gone"}`, string(resp.Body))

	_, err = natstransport.DecodeResponse(natstransport.EncodeResponse(nil, errors.New("dial tcp: refused")))
	require.ErrorIs(t, err, natstransport.ErrBridgeFailure)
	assert.Contains(t, err.Error(), "dial tcp: refused")

	_, err = natstransport.DecodeResponse(nats.NewMsg("reply"))
	require.ErrorIs(t, err, natstransport.ErrMissingStatus)
}

func TestBridge_Handle(t *testing.T) {
	t.Parallel()

	stub := &stubTransport{resp: &tastypie.Response{StatusCode: 200, Body: []byte(`{"objects": []}`)}}
	bridge := natstransport.NewBridge(nil, "", "http://h/api/1/", stub)

	request, err := natstransport.EncodeRequest("tastypie.get", &tastypie.Request{URL: "http://h/api/1/entry/"})
	require.NoError(t, err)

	resp, err := natstransport.DecodeResponse(bridge.Handle(request))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"objects": []}`, string(resp.Body))
	require.Len(t, stub.requests, 1)

	outside, err := natstransport.EncodeRequest("tastypie.get", &tastypie.Request{URL: "http://evil/api/1/entry/"})
	require.NoError(t, err)

	_, err = natstransport.DecodeResponse(bridge.Handle(outside))
	require.ErrorIs(t, err, natstransport.ErrBridgeFailure)
	assert.Len(t, stub.requests, 1)

	stub.err = errors.New("connection reset")

	_, err = natstransport.DecodeResponse(bridge.Handle(request))
	require.ErrorIs(t, err, natstransport.ErrBridgeFailure)
}

// TestTransport_ThroughBridge needs a running server, e.g.
// TASTYPIE_TEST_NATS_URL=nats://127.0.0.1:4222.
func TestTransport_ThroughBridge(t *testing.T) {
	natsURL := os.Getenv("TASTYPIE_TEST_NATS_URL")
	if natsURL == "" {
		t.Skip("TASTYPIE_TEST_NATS_URL not set")
	}

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "ApiKey bob:key", request.Header.Get("Authorization"))
		_, _ = writer.Write([]byte(`{"title": "hello"}`))
	}))
	defer server.Close()

	conn, err := nats.Connect(natsURL)
	require.NoError(t, err)

	defer conn.Close()

	subject := "tastypie.test." + time.Now().Format("150405.000000")

	bridge := natstransport.NewBridge(conn, subject, server.URL+"/api/1/", tphttp.NewClient())
	require.NoError(t, bridge.Start())

	defer func() { _ = bridge.Stop() }()

	transport, err := natstransport.Connect(&tastypie.NATSConfig{URL: natsURL, Subject: subject, Timeout: 2 * time.Second})
	require.NoError(t, err)

	defer func() { _ = transport.Close() }()

	resp, err := transport.Do(context.Background(), &tastypie.Request{
		URL:     server.URL + "/api/1/entry/1/",
		Headers: http.Header{"Authorization": []string{"ApiKey bob:key"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"title": "hello"}`, string(resp.Body))
}
