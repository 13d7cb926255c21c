package rpc

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client is a one-shot control-protocol client: each call dials,
// writes one line, reads one reply line, and closes, matching the
// "short TCP control exchange" of spec §5. Dialing retries with
// exponential backoff (grounded on the teacher's
// internal/storage/dolt.newServerRetryBackoff/backoff.Retry pattern,
// the one place in the teacher's own stack that reaches for
// cenkalti/backoff), since the daemon may be mid-restart.
type Client struct {
	addr           string
	dialTimeout    time.Duration
	maxElapsedTime time.Duration
}

// NewClient returns a Client that connects to addr (the control
// protocol's TCP listen address, spec §6).
func NewClient(addr string) *Client {
	return &Client{addr: addr, dialTimeout: 2 * time.Second, maxElapsedTime: 10 * time.Second}
}

func (c *Client) dial() (net.Conn, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsedTime

	var conn net.Conn
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = net.DialTimeout("tcp", c.addr, c.dialTimeout)
		return dialErr
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	return conn, nil
}

// call sends line verbatim (plus a trailing newline) and returns the
// single reply line, trimmed.
func (c *Client) call(line string) (string, error) {
	conn, err := c.dial()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	if _, err := fmt.Fprintln(conn, line); err != nil {
		return "", fmt.Errorf("writing request: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("reading reply: %w", err)
	}
	return strings.TrimRight(reply, "\n"), nil
}

// Ping sends PING and reports whether the daemon replied PONG.
func (c *Client) Ping() (bool, error) {
	reply, err := c.call(string(VerbPing))
	if err != nil {
		return false, err
	}
	return reply == ReplyPong, nil
}

// Stop sends STOP, requesting graceful shutdown.
func (c *Client) Stop() error {
	reply, err := c.call(string(VerbStop))
	if err != nil {
		return err
	}
	if reply != ReplyStopping {
		return fmt.Errorf("unexpected reply to STOP: %q", reply)
	}
	return nil
}

// Get sends "GET <path>" and returns the raw reply line.
func (c *Client) Get(path string) (string, error) {
	return c.call("GET " + path)
}

// Patch sends "PATCH <path>" and returns the raw reply line.
func (c *Client) Patch(path string) (string, error) {
	return c.call("PATCH " + path)
}

// FZ sends "FZ <query>[;<query>...]" and returns the raw reply line.
func (c *Client) FZ(queries []string) (string, error) {
	return c.call("FZ " + strings.Join(queries, ";"))
}

// ProcessRegion sends the region's name, asking the daemon to validate
// and apply the modification batch stored there (spec §5).
func (c *Client) ProcessRegion(regionName string) (string, error) {
	return c.call(regionName)
}
