package natstransport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/tastypie-client/internal/constants"
	"github.com/fivetwenty-io/tastypie-client/pkg/tastypie"
)

// Bridge answers NATS requests by performing them over another transport.
// Only URLs under the service URL are forwarded.
type Bridge struct {
	conn       *nats.Conn
	subject    string
	queue      string
	serviceURL string
	transport  tastypie.Transport
	logger     tastypie.Logger
	timeout    time.Duration

	mu  sync.Mutex
	sub *nats.Subscription
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithQueue load-balances requests across bridges in the same queue group.
func WithQueue(queue string) BridgeOption {
	return func(b *Bridge) {
		b.queue = queue
	}
}

// WithBridgeLogger sets the logger.
func WithBridgeLogger(logger tastypie.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithBridgeTimeout bounds each forwarded request.
func WithBridgeTimeout(timeout time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.timeout = timeout
	}
}

// NewBridge creates a bridge for the service at serviceURL.
func NewBridge(conn *nats.Conn, subject, serviceURL string, transport tastypie.Transport, opts ...BridgeOption) *Bridge {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	bridge := &Bridge{
		conn:       conn,
		subject:    subject,
		serviceURL: serviceURL,
		transport:  transport,
		logger:     tastypie.NopLogger{},
		timeout:    constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(bridge)
	}

	return bridge
}

// Start subscribes to the bridge subject.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return nil
	}

	sub, err := b.conn.QueueSubscribe(b.subject, b.queue, func(msg *nats.Msg) {
		reply := b.Handle(msg)
		if err := msg.RespondMsg(reply); err != nil {
			b.logger.Error("NATS reply failed", map[string]interface{}{"subject": b.subject, "error": err})
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}

	b.sub = sub

	b.logger.Info("NATS bridge started", map[string]interface{}{"subject": b.subject, "service": b.serviceURL})

	return nil
}

// Stop drains the subscription.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub == nil {
		return nil
	}

	err := b.sub.Drain()
	b.sub = nil

	return err
}

// Handle performs one bridged request and builds its reply.
func (b *Bridge) Handle(msg *nats.Msg) *nats.Msg {
	req, err := DecodeRequest(msg)
	if err != nil {
		return EncodeResponse(nil, err)
	}

	if !strings.HasPrefix(req.URL, b.serviceURL) {
		b.logger.Warn("NATS bridge refused URL", map[string]interface{}{"url": req.URL})

		return EncodeResponse(nil, fmt.Errorf("%s is outside %s", req.URL, b.serviceURL))
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	resp, err := b.transport.Do(ctx, req)
	if err != nil {
		b.logger.Warn("NATS bridge request failed", map[string]interface{}{"url": req.URL, "error": err})
	}

	return EncodeResponse(resp, err)
}
