package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures          = 5
	openTimeout          = 30 * time.Second
	publishTimeout       = 5 * time.Second
	maxReconnectAttempts = 3
	dialTimeout          = 2 * time.Second
	reconnectTimeout     = 3 * time.Second
)

// errReconnecting is returned to publishers that arrive while another
// publisher is already re-dialling the broker.
var errReconnecting = errors.New("AMQP reconnect in progress")

// Client publishes ledger events to a durable topic exchange. A broken
// connection is re-dialled lazily by one publisher at a time, bounded by
// reconnectTimeout; publishers arriving meanwhile fail fast. Repeated
// failures trip a circuit breaker so writes stop waiting on a dead broker.
type Client struct {
	url              string
	exchangeName     string
	reconnectTimeout time.Duration

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	reconnecting atomic.Bool

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName string) (*Client, error) {
	c := &Client{
		url:              url,
		exchangeName:     exchangeName,
		reconnectTimeout: reconnectTimeout,
	}

	conn, channel, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.conn, c.channel = conn, channel
	return c, nil
}

// dial connects to the broker and declares the exchange. It does not touch
// the client's connection state.
func (c *Client) dial() (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.DialConfig(c.url, amqp091.Config{
		Dial: amqp091.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return conn, channel, nil
}

// ensureChannel returns an open channel, re-dialling with backoff if needed.
// c.mu is never held across a dial or a backoff wait.
func (c *Client) ensureChannel(ctx context.Context) (*amqp091.Channel, error) {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch != nil && !ch.IsClosed() {
		return ch, nil
	}

	if !c.reconnecting.CompareAndSwap(false, true) {
		return nil, errReconnecting
	}
	defer c.reconnecting.Store(false)

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	timeout := c.reconnectTimeout
	if timeout <= 0 {
		timeout = reconnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("reconnect after %d attempts: %w (last error: %v)", attempt, ctx.Err(), lastErr)
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		conn, channel, err := c.dial()
		if err == nil {
			c.mu.Lock()
			c.conn, c.channel = conn, channel
			c.mu.Unlock()
			slog.InfoContext(ctx, "Reconnected to AMQP broker", "exchange", c.exchangeName, "attempt", attempt+1)
			return channel, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "AMQP reconnect failed", "attempt", attempt+1, "error", lastErr)
	}
	return nil, fmt.Errorf("reconnect after %d attempts: %w", maxReconnectAttempts, lastErr)
}

// resetLocked drops the current connection. Callers hold c.mu.
func (c *Client) resetLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// PublishLedgerEvent publishes an event with the event type as routing key.
func (c *Client) PublishLedgerEvent(ctx context.Context, eventType string, entityID int64) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, skipping %s event", eventType)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	evt := NewLedgerEvent(eventType, entityID)
	body, err := evt.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := c.ensureChannel(ctx)
	if err != nil {
		if !errors.Is(err, errReconnecting) {
			c.recordFailure()
		}
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		eventType,      // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    evt.ID,
			Timestamp:    evt.OccurredAt,
			Type:         eventType,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.resetLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish event: %w", err)
	}
	c.recordSuccess()

	slog.DebugContext(ctx, "Published ledger event",
		"event_id", evt.ID,
		"type", eventType,
		"entity_id", entityID,
		"exchange", c.exchangeName)

	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}

	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()

	// A failure while half-open reopens immediately.
	if atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
		return
	}
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second and caps at thirty.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
