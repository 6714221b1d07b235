package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/model"
)

// baseURL is a placeholder host; every request goes over the socket.
const baseURL = "http://intervald"

// RemoteError is a non-2xx reply from the daemon.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("intervald: %s (%d)", e.Message, e.StatusCode)
}

// Client talks to a daemon over its unix socket.
type Client struct {
	http   *http.Client
	dialer websocket.Dialer
}

func NewClient(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{DialContext: dial},
			Timeout:   5 * time.Second,
		},
		dialer: websocket.Dialer{
			NetDialContext:   dial,
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

func (c *Client) Issue(ctx context.Context, cmd host.Command) error {
	_, err := c.IssueState(ctx, cmd)
	return err
}

// IssueState sends cmd and returns the state after it was applied.
func (c *Client) IssueState(ctx context.Context, cmd host.Command) (model.TimerState, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return model.TimerState{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/command", bytes.NewReader(body))
	if err != nil {
		return model.TimerState{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) State(ctx context.Context) (model.TimerState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/state", nil)
	if err != nil {
		return model.TimerState{}, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (model.TimerState, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return model.TimerState{}, fmt.Errorf("reach daemon: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.TimerState{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "ok" {
		return model.TimerState{}, &RemoteError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	if out.State == nil {
		return model.TimerState{}, errors.New("intervald: response without state")
	}
	return *out.State, nil
}

// Watch calls fn with every snapshot streamed by the daemon until ctx ends,
// the daemon closes the stream, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(model.TimerState) error) error {
	conn, _, err := c.dialer.DialContext(ctx, "ws://intervald/stream", nil)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if err := fn(env.Data); err != nil {
			return err
		}
	}
}
