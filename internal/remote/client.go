package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
)

// DefaultTimeout is the default timeout for a format request.
const DefaultTimeout = 30 * time.Second

// ErrClosed is returned for requests on a closed client.
var ErrClosed = errors.New("client is closed")

// Client sends format requests over one WebSocket connection. It is safe for
// concurrent use.
type Client struct {
	conn    Conn
	writeMu sync.Mutex
	msgID   atomic.Int64

	// pending maps request IDs to response channels
	pending sync.Map // map[int64]chan *Response

	// closed signals that the client is shutting down
	closed   atomic.Bool
	closedCh chan struct{}
	stopOnce sync.Once
	closeErr error
	closeMu  sync.Mutex

	// done signals that the read loop has exited
	done chan struct{}
}

// NewClient creates a new client with the given connection.
func NewClient(conn Conn) *Client {
	c := &Client{
		conn:     conn,
		closedCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Dial connects to a format server's WebSocket endpoint, e.g.
// ws://localhost:8080/ws.
func Dial(ctx context.Context, wsURL string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	conn.SetReadLimit(MaxMessageBytes)
	return NewClient(conn), nil
}

// Format formats html on the server using the default timeout. A nil opts
// lets the server pick its own options for path.
func (c *Client) Format(html, path string, opts *htmlformat.Options) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return c.FormatContext(ctx, html, path, opts)
}

// FormatContext formats html with a context for cancellation.
func (c *Client) FormatContext(ctx context.Context, html, path string, opts *htmlformat.Options) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClosed
	}

	id := c.msgID.Add(1)
	data, err := json.Marshal(Request{
		ID:      id,
		HTML:    html,
		Path:    path,
		Options: opts,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create response channel before sending
	respCh := make(chan *Response, 1)
	c.pending.Store(id, respCh)
	defer c.pending.Delete(id)

	c.writeMu.Lock()
	err = c.conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return Result{}, resp.Error
		}
		return Result{HTML: resp.HTML, Changed: resp.Changed}, nil
	case <-ctx.Done():
		return Result{}, fmt.Errorf("request timed out: %w", ctx.Err())
	case <-c.closedCh:
		if err := c.Err(); err != nil {
			return Result{}, fmt.Errorf("connection lost while waiting for response: %w", err)
		}
		return Result{}, errors.New("client closed while waiting for response")
	}
}

// Close closes the client connection and stops the read loop.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	c.stop()

	c.closeMu.Lock()
	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	c.closeMu.Unlock()

	// Wait for read loop to exit
	<-c.done

	return err
}

// Err returns any error that caused the client to close.
func (c *Client) Err() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// readLoop reads messages from the connection and dispatches them.
func (c *Client) readLoop() {
	defer close(c.done)

	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if !c.closed.Swap(true) {
				c.closeMu.Lock()
				c.closeErr = err
				c.closeMu.Unlock()
				c.stop()
			}
			return
		}

		resp, err := parseResponse(data)
		if err != nil {
			continue // Skip malformed messages
		}
		c.dispatch(resp)
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.closedCh) })
}

// dispatch sends a response to the waiting caller.
func (c *Client) dispatch(resp *Response) {
	if ch, ok := c.pending.Load(resp.ID); ok {
		respCh := ch.(chan *Response)
		select {
		case respCh <- resp:
		default:
			// Duplicate response for the same ID
		}
	}
}
