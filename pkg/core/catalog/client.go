// Package catalog talks to the remote identification catalog over its
// legacy XML-RPC interface. All calls are session-authenticated; the
// client logs in lazily and re-authenticates once, transparently, when
// the server reports an expired session.
package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	xmlrpc "github.com/kolo/xmlrpc"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is the catalog's public XML-RPC endpoint.
	DefaultEndpoint = "https://api.opensubtitles.org:443/xml-rpc"

	// hashBatchSize is the server-imposed cap on hashes per
	// CheckMovieHash call.
	hashBatchSize = 199

	defaultTimeout = 20 * time.Second
)

// caller abstracts the XML-RPC transport. *xmlrpc.Client satisfies it;
// tests substitute a fake.
type caller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
}

// Config carries the credentials and connection options for a client.
type Config struct {
	Endpoint  string
	Username  string
	Password  string
	Language  string // ISO 639-1 code sent on login
	UserAgent string
	Timeout   time.Duration
}

// Client is a session-authenticated catalog client. It is safe for
// concurrent use: session transitions (login, refresh) are serialized
// so that parallel callers never race two logins.
type Client struct {
	rpc    caller
	config Config
	logger *log.Logger

	mu    sync.Mutex // protects token and serializes session transitions
	token string
}

// New creates a client speaking to config.Endpoint (or DefaultEndpoint).
func New(config Config, logger *log.Logger) (*Client, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	tr := &http.Transport{
		ResponseHeaderTimeout: config.Timeout,
	}
	rpc, err := xmlrpc.NewClient(config.Endpoint, tr)
	if err != nil {
		return nil, fmt.Errorf("catalog: error creating XML-RPC client: %w", err)
	}
	return NewWithCaller(config, rpc, logger), nil
}

// NewWithCaller creates a client over an existing transport.
func NewWithCaller(config Config, rpc caller, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New()
	}
	return &Client{rpc: rpc, config: config, logger: logger}
}

// ServerInfo fetches the catalog's self-description. It needs no session.
func (c *Client) ServerInfo() (map[string]interface{}, error) {
	return c.safeCall("ServerInfo")
}

// Login authenticates with the configured credentials and stores the
// session token. A failed login surfaces as *AuthError.
func (c *Client) Login() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.loginLocked()
	return err
}

// Logout invalidates the session on the server and forgets the token.
// Calling it without a session is a no-op.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return nil
	}
	_, err := c.safeCall("LogOut", c.token)
	// The local session is gone either way.
	c.token = ""
	return err
}

// LoggedIn reports whether the client currently holds a session token.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// Call issues an authenticated RPC: the session token is prepended to
// args, logging in first if needed. When the server reports an expired
// session the client logs in once more and retries the same call
// exactly once; a second session failure is surfaced to the caller.
func (c *Client) Call(method string, args ...interface{}) (map[string]interface{}, error) {
	token, err := c.session()
	if err != nil {
		return nil, err
	}

	data, err := c.safeCall(method, prepend(token, args)...)
	if errors.Is(err, ErrNoSession) {
		c.logger.Debugf("catalog: session expired during %s, re-authenticating", method)
		token, err = c.refreshSession(token)
		if err != nil {
			return nil, err
		}
		return c.safeCall(method, prepend(token, args)...)
	}
	return data, err
}

// safeCall issues one raw RPC and validates the reply's status line.
func (c *Client) safeCall(method string, args ...interface{}) (map[string]interface{}, error) {
	var reply interface{}
	if err := c.rpc.Call(method, args, &reply); err != nil {
		return nil, fmt.Errorf("catalog: %s call failed: %w", method, err)
	}

	data, ok := reply.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("catalog: %s returned %T: %w", method, reply, ErrNoStatus)
	}

	status, ok := data["status"].(string)
	if !ok {
		return nil, fmt.Errorf("catalog: %s: %w", method, ErrNoStatus)
	}
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return nil, fmt.Errorf("catalog: %s: status %q: %w", method, status, ErrNoStatus)
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: status %q: %w", method, status, ErrNoStatus)
	}
	if code != 200 {
		return nil, newStatusError(code, status)
	}
	return data, nil
}

// session returns the current token, logging in when there is none.
func (c *Client) session() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	return c.loginLocked()
}

// refreshSession replaces a stale token. When a concurrent caller has
// already re-authenticated, its fresh token is reused instead of
// logging in a second time.
func (c *Client) refreshSession(stale string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.token != stale {
		return c.token, nil
	}
	c.token = ""
	return c.loginLocked()
}

// loginLocked performs the LogIn RPC. Callers hold c.mu.
func (c *Client) loginLocked() (string, error) {
	data, err := c.safeCall("LogIn",
		c.config.Username, c.config.Password, c.config.Language, c.config.UserAgent)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	token, _ := data["token"].(string)
	if token == "" {
		return "", &AuthError{Err: fmt.Errorf("login reply carries no token")}
	}
	c.token = token
	c.logger.Debug("catalog: login successful")
	return token, nil
}

func prepend(token string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, token)
	return append(out, args...)
}
