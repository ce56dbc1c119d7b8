package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	ipcCommandTimeout = 5 * time.Second
	ipcDialInterval   = 100 * time.Millisecond
)

var errIPCClosed = errors.New("mpv ipc connection closed")

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is either a reply (RequestID set) or an event (Event set).
type ipcMessage struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
}

// ipcClient speaks mpv's line-delimited JSON protocol. It dials lazily and
// redials after the connection drops, so it survives mpv restarts.
type ipcClient struct {
	socket  string
	logger  *slog.Logger
	onEvent func(ipcMessage)

	mu      sync.Mutex
	conn    net.Conn
	pending map[int64]chan ipcMessage
	nextID  int64
	closed  bool
}

func newIPCClient(socket string, logger *slog.Logger, onEvent func(ipcMessage)) *ipcClient {
	return &ipcClient{
		socket:  socket,
		logger:  logger,
		onEvent: onEvent,
		pending: make(map[int64]chan ipcMessage),
	}
}

// Command sends one command and waits for its reply.
func (c *ipcClient) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, ipcCommandTimeout)
	defer cancel()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	reply := make(chan ipcMessage, 1)
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	data, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, errIPCClosed
		}
		if msg.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mpv %v: %w", args[0], ctx.Err())
	}
}

// connect returns the live connection, dialing until ctx expires.
func (c *ipcClient) connect(ctx context.Context) (net.Conn, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, errIPCClosed
		}
		if c.conn != nil {
			conn := c.conn
			c.mu.Unlock()
			return conn, nil
		}
		c.mu.Unlock()

		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", c.socket)
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				conn.Close()
				return nil, errIPCClosed
			}
			c.conn = conn
			c.mu.Unlock()
			c.logger.Debug("Connected to mpv", "socket", c.socket)
			go c.readLoop(conn)
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to mpv at %s: %w", c.socket, err)
		case <-time.After(ipcDialInterval):
		}
	}
}

func (c *ipcClient) readLoop(conn net.Conn) {
	dec := json.NewDecoder(conn)
	for {
		var msg ipcMessage
		if err := dec.Decode(&msg); err != nil {
			c.logger.Debug("mpv connection ended", "error", err)
			c.drop(conn)
			return
		}

		if msg.Event != "" {
			if c.onEvent != nil {
				c.onEvent(msg)
			}
			continue
		}

		c.mu.Lock()
		if reply, ok := c.pending[msg.RequestID]; ok {
			delete(c.pending, msg.RequestID)
			reply <- msg
		}
		c.mu.Unlock()
	}
}

// drop forgets conn and fails every request waiting on it.
func (c *ipcClient) drop(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	conn.Close()
	c.conn = nil
	for id, reply := range c.pending {
		close(reply)
		delete(c.pending, id)
	}
}

// Close disconnects and makes further commands fail.
func (c *ipcClient) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		c.drop(conn)
	}
	return nil
}
