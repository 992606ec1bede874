// Package control talks to the HTTP agent running on each node: the
// name endpoint polled by the background refresher and the
// machine-control endpoint used for fleet commands.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Commands understood by the node agents.
const (
	CommandReboot   = "reboot"
	CommandShutdown = "shutdown"
)

// Default per-request timeouts. Name polling is latency-sensitive and
// kept short; control commands get more room.
const (
	DefaultNameTimeout    = time.Second
	DefaultCommandTimeout = 5 * time.Second
)

// ErrUnknownCommand indicates a command the node agents do not accept.
var ErrUnknownCommand = errors.New("unknown command")

// ValidCommand reports whether the node agents accept the command.
func ValidCommand(command string) bool {
	return command == CommandReboot || command == CommandShutdown
}

// Client issues requests against the node-side control API. The agent
// contract is informal but fixed: the name endpoint returns a JSON
// string, and machine-control takes the JSON-encoded command string as
// its whole body.
type Client struct {
	httpClient     *http.Client
	nameTimeout    time.Duration
	commandTimeout time.Duration
}

// NewClient creates a client with the given per-request timeouts.
// Non-positive values fall back to the defaults.
func NewClient(nameTimeout, commandTimeout time.Duration) *Client {
	if nameTimeout <= 0 {
		nameTimeout = DefaultNameTimeout
	}
	if commandTimeout <= 0 {
		commandTimeout = DefaultCommandTimeout
	}
	return &Client{
		httpClient:     &http.Client{},
		nameTimeout:    nameTimeout,
		commandTimeout: commandTimeout,
	}
}

// FetchName queries a node's display name.
func (c *Client) FetchName(ctx context.Context, address string, port int) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.nameTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/node-details/name", net.JoinHostPort(address, strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var name string
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&name); err != nil {
		return "", fmt.Errorf("decode name from %s: %w", address, err)
	}
	return name, nil
}

// SendCommand posts a control command to a node. The returned error is
// nil when the request completed at the transport level; the HTTP
// status is deliberately not inspected, matching the agent contract.
func (c *Client) SendCommand(ctx context.Context, address string, port int, command string) error {
	if !ValidCommand(command) {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	body, err := json.Marshal(command)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/machine-control", net.JoinHostPort(address, strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
