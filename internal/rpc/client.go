package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultCallTimeout bounds how long a Call waits for its response.
const DefaultCallTimeout = 5 * time.Second

// clientEnvelope is the wire shape of anything the server sends: a response
// (ID set) or a notification (Method set).
type clientEnvelope struct {
	Jsonrpc string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
}

// ClientNotification is a server-pushed event as seen by the client.
type ClientNotification struct {
	Method string
	Params json.RawMessage
}

// Client is a JSON-RPC client over the daemon's unix socket. It demultiplexes
// responses to concurrent callers and exposes notifications on a channel.
type Client struct {
	conn net.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan *clientEnvelope
	nextID    int64
	closed    bool

	notifications chan ClientNotification
	done          chan struct{}
}

// Dial connects to the daemon socket and starts the read loop.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon at %s: %w", socketPath, err)
	}

	c := &Client{
		conn:          conn,
		pending:       make(map[int64]chan *clientEnvelope),
		notifications: make(chan ClientNotification, 256),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Notifications returns the channel of server-pushed events. The channel
// closes when the connection ends; events are dropped if the consumer falls
// behind.
func (c *Client) Notifications() <-chan ClientNotification {
	return c.notifications
}

// Call invokes a method and decodes its result into result (which may be
// nil). It fails after DefaultCallTimeout.
func (c *Client) Call(method string, params, result any) error {
	return c.CallTimeout(method, params, result, DefaultCallTimeout)
}

// CallTimeout is Call with an explicit deadline.
func (c *Client) CallTimeout(method string, params, result any, timeout time.Duration) error {
	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return fmt.Errorf("connection closed")
	}
	c.nextID++
	id := c.nextID
	ch := make(chan *clientEnvelope, 1)
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	rawID := json.RawMessage(fmt.Sprintf("%d", id))
	req := Request{Jsonrpc: Version, ID: &rawID, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}
	line, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(append(line, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case envelope := <-ch:
		if envelope.Error != nil {
			return envelope.Error
		}
		if result != nil && len(envelope.Result) > 0 {
			if err := json.Unmarshal(envelope.Result, result); err != nil {
				return fmt.Errorf("failed to decode result: %w", err)
			}
		}
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	case <-time.After(timeout):
		return fmt.Errorf("call %s timed out after %s", method, timeout)
	}
}

// Close tears down the connection and wakes all pending callers.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var envelope clientEnvelope
		if err := json.Unmarshal(line, &envelope); err != nil {
			continue
		}

		if envelope.Method != "" {
			select {
			case c.notifications <- ClientNotification{Method: envelope.Method, Params: envelope.Params}:
			default:
				// Consumer behind; drop.
			}
			continue
		}

		if envelope.ID == nil {
			continue
		}
		var id int64
		if err := json.Unmarshal(*envelope.ID, &id); err != nil {
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[id]
		c.pendingMu.Unlock()
		if ok {
			env := envelope
			ch <- &env
		}
	}

	c.pendingMu.Lock()
	c.closed = true
	c.pendingMu.Unlock()
	close(c.done)
	close(c.notifications)
}
