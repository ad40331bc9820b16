// Package natstransport tunnels the client's GETs through NATS request/reply.
//
// A Transport publishes the request URL on a subject and waits for the reply;
// a Bridge subscribed to that subject performs the GET over HTTP and answers
// with the body, carrying the status code in a header.
package natstransport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

var (
	ErrNoURL         = errors.New("request carries no URL")
	ErrBridgeFailure = errors.New("bridge could not perform the request")
	ErrMissingStatus = errors.New("reply carries no status")
)

// Transport implements tastypie.Transport over NATS.
type Transport struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	owned   bool
}

var _ tastypie.Transport = (*Transport)(nil)

// New wraps an existing connection. Close leaves the connection open.
func New(conn *nats.Conn, subject string, timeout time.Duration) *Transport {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	if timeout <= 0 {
		timeout = constants.DefaultNATSTimeout
	}

	return &Transport{conn: conn, subject: subject, timeout: timeout}
}

// Connect dials the server named by config. Close drains the connection.
func Connect(config *tastypie.NATSConfig, opts ...nats.Option) (*Transport, error) {
	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
	}

	transport := New(conn, config.Subject, config.Timeout)
	transport.owned = true

	return transport, nil
}

// Do implements tastypie.Transport.
func (t *Transport) Do(ctx context.Context, req *tastypie.Request) (*tastypie.Response, error) {
	msg, err := EncodeRequest(t.subject, req)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	reply, err := t.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("requesting %s over NATS: %w", req.URL, err)
	}

	return DecodeResponse(reply)
}

// Close drains the connection if the transport opened it.
func (t *Transport) Close() error {
	if !t.owned {
		return nil
	}

	return t.conn.Drain()
}

// EncodeRequest turns a request into a NATS message: the URL is the payload
// and request headers become message headers.
func EncodeRequest(subject string, req *tastypie.Request) (*nats.Msg, error) {
	if req.URL == "" {
		return nil, ErrNoURL
	}

	msg := nats.NewMsg(subject)
	msg.Data = []byte(req.URL)

	for key, values := range req.Headers {
		for _, value := range values {
			msg.Header.Add(key, value)
		}
	}

	return msg, nil
}

// DecodeRequest is the inverse of EncodeRequest.
func DecodeRequest(msg *nats.Msg) (*tastypie.Request, error) {
	if len(msg.Data) == 0 {
		return nil, ErrNoURL
	}

	headers := make(http.Header, len(msg.Header))
	for key, values := range msg.Header {
		headers[key] = append([]string(nil), values...)
	}

	return &tastypie.Request{
		Method:  http.MethodGet,
		URL:     string(msg.Data),
		Headers: headers,
	}, nil
}

// EncodeResponse builds the reply for a bridged request. A transport error is
// reported in a header instead of a status.
func EncodeResponse(resp *tastypie.Response, doErr error) *nats.Msg {
	msg := nats.NewMsg("")

	if doErr != nil {
		msg.Header.Set(constants.HeaderError, doErr.Error())

		return msg
	}

	for key, values := range resp.Headers {
		for _, value := range values {
			msg.Header.Add(key, value)
		}
	}

	msg.Header.Set(constants.HeaderStatus, strconv.Itoa(resp.StatusCode))
	msg.Data = resp.Body

	return msg
}

// DecodeResponse is the inverse of EncodeResponse.
func DecodeResponse(msg *nats.Msg) (*tastypie.Response, error) {
	if bridgeErr := msg.Header.Get(constants.HeaderError); bridgeErr != "" {
		return nil, fmt.Errorf("%w: %s", ErrBridgeFailure, bridgeErr)
	}

	rawStatus := msg.Header.Get(constants.HeaderStatus)
	if rawStatus == "" {
		return nil, ErrMissingStatus
	}

	status, err := strconv.Atoi(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingStatus, rawStatus)
	}

	headers := make(http.Header, len(msg.Header))

	for key, values := range msg.Header {
		if key == constants.HeaderStatus {
			continue
		}

		headers[key] = append([]string(nil), values...)
	}

	return &tastypie.Response{
		StatusCode: status,
		Headers:    headers,
		Body:       msg.Data,
	}, nil
}
