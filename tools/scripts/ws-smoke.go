// Package main provides a CI-friendly smoke test for a running ScribeAssist server.
//
// It validates:
//   - login sets the session cookie
//   - the moderation feed handshake, subprotocol and feed.ready
//   - /updatedict stages a word and the feed reports entry.staged
//   - /addwords publishes it and the feed reports entry.published
//   - /viewdict lists the published word
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultSubprotocol = "scribe.events.v1"
	maxReadBytes       = 1 << 20 // 1MiB

	typeReady     = "feed.ready"
	typeError     = "error"
	typeStaged    = "entry.staged"
	typePublished = "entry.published"
)

type envelope struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type entry struct {
	ID     string `json:"id"`
	Word   string `json:"word"`
	Status string `json:"status"`
}

type entryPayload struct {
	Entry entry  `json:"entry"`
	Actor string `json:"actor"`
}

type smokeClient struct {
	base   *url.URL
	origin string
	http   *http.Client

	conn  *websocket.Conn
	inbox chan envelope
	errCh chan error
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin   = flag.String("origin", "http://localhost", "Origin header to send (browser-like handshake)")
		identity = flag.String("identity", "", "Login identity (required)")
		secret   = flag.String("secret", "", "Login secret (required)")
		word     = flag.String("word", "", "Word to stage and publish (default: generated)")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}
	if err := validateOrigin(*origin); err != nil {
		fatalf("invalid -origin: %v", err)
	}
	if *identity == "" || *secret == "" {
		fatalf("-identity and -secret are required")
	}
	if *word == "" {
		*word = fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	}

	root := context.Background()

	c := newSmokeClient(base, *origin)
	role := c.mustLogin(root, *identity, *secret, *timeout)
	if *verbose {
		fmt.Printf("logged in: identity=%q role=%q\n", *identity, role)
	}

	sessionID := c.mustConnect(root, *timeout)
	defer closeWS(c.conn)
	if *verbose {
		fmt.Printf("feed ready: session_id=%s\n", sessionID)
	}

	id := c.mustSubmit(root, *word, *timeout)
	staged := c.mustReadEntry(root, typeStaged, id, *timeout)
	if staged.Entry.Word != *word || staged.Entry.Status != "staged" {
		fatalf("entry.staged mismatch: %+v", staged.Entry)
	}

	c.mustAccept(root, id, *timeout)
	published := c.mustReadEntry(root, typePublished, id, *timeout)
	if published.Entry.Status != "published" {
		fatalf("entry.published mismatch: %+v", published.Entry)
	}

	c.mustPublishedContains(root, id, *timeout)

	fmt.Printf("OK: session_id=%s entry_id=%s word=%q actor=%q\n", sessionID, id, *word, published.Actor)
}

// newSmokeClient shares one cookie jar between HTTP calls and the feed dial.
// The client has no Timeout: websocket.Dial refuses one, so every step uses a
// context deadline instead.
func newSmokeClient(base *url.URL, origin string) *smokeClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		fatalf("cookie jar: %v", err)
	}
	return &smokeClient{
		base:   base,
		origin: origin,
		http:   &http.Client{Jar: jar},
		inbox:  make(chan envelope, 512),
		errCh:  make(chan error, 1),
	}
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func validateOrigin(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must be http/https, got: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("origin missing host")
	}
	return nil
}

func (c *smokeClient) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// do sends a JSON request and decodes a JSON response into out. It fails the
// run on any status other than want.
func (c *smokeClient) do(parent context.Context, method, path string, body, out any, want int, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(mustJSON(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), rd)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if resp.StatusCode != want {
		fatalf("%s %s: status=%d want=%d body=%s", method, path, resp.StatusCode, want, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func (c *smokeClient) mustLogin(parent context.Context, identity, secret string, stepTimeout time.Duration) string {
	var resp struct {
		Message string `json:"message"`
		Role    string `json:"role"`
	}
	c.do(parent, http.MethodPost, "/userlogin", map[string]string{"identity": identity, "secret": secret}, &resp, http.StatusOK, stepTimeout)

	if len(c.http.Jar.Cookies(c.base)) == 0 {
		fatalf("login did not set a session cookie")
	}
	return resp.Role
}

func (c *smokeClient) mustConnect(parent context.Context, stepTimeout time.Duration) string {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	wsURL := *c.base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/events"

	h := http.Header{}
	if strings.TrimSpace(c.origin) != "" {
		h.Set("Origin", c.origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL.String(), &websocket.DialOptions{
		Subprotocols: []string{defaultSubprotocol},
		HTTPHeader:   h,
		HTTPClient:   c.http,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect feed: %v", err)
	}

	assertSubprotocol(resp, defaultSubprotocol)

	conn.SetReadLimit(maxReadBytes)
	c.conn = conn
	c.startReadLoop()

	ready := c.mustReadUntilType(parent, typeReady, stepTimeout)
	var p struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(ready.Payload, &p); err != nil {
		fatalf("unmarshal feed.ready payload: %v", err)
	}
	if strings.TrimSpace(p.SessionID) == "" {
		fatalf("feed.ready missing session_id")
	}
	return p.SessionID
}

func (c *smokeClient) mustSubmit(parent context.Context, word string, stepTimeout time.Duration) string {
	var resp struct {
		Status bool    `json:"status"`
		Data   []entry `json:"data"`
	}
	body := map[string]any{"words": []map[string]string{{"word": word, "definition": "smoke test entry"}}}
	c.do(parent, http.MethodPost, "/updatedict", body, &resp, http.StatusOK, stepTimeout)

	if !resp.Status || len(resp.Data) != 1 || resp.Data[0].ID == "" {
		fatalf("updatedict: unexpected response %+v", resp)
	}
	return resp.Data[0].ID
}

func (c *smokeClient) mustAccept(parent context.Context, id string, stepTimeout time.Duration) {
	var resp struct {
		Status  bool `json:"status"`
		Results []struct {
			ID string `json:"id"`
			OK bool   `json:"ok"`
		} `json:"results"`
	}
	c.do(parent, http.MethodPost, "/addwords", map[string]any{"ids": []string{id}}, &resp, http.StatusOK, stepTimeout)

	if !resp.Status || len(resp.Results) != 1 || !resp.Results[0].OK {
		fatalf("addwords: unexpected response %+v", resp)
	}
}

func (c *smokeClient) mustPublishedContains(parent context.Context, id string, stepTimeout time.Duration) {
	var resp struct {
		Data []entry `json:"data"`
	}
	c.do(parent, http.MethodGet, "/viewdict", nil, &resp, http.StatusOK, stepTimeout)

	for _, e := range resp.Data {
		if e.ID == id {
			return
		}
	}
	fatalf("viewdict: entry %s not listed", id)
}

func assertSubprotocol(resp *http.Response, want string) {
	if resp == nil {
		return
	}
	got := strings.TrimSpace(resp.Header.Get("Sec-WebSocket-Protocol"))
	if got != want {
		fatalf("subprotocol mismatch: got=%q want=%q", got, want)
	}
}

func (c *smokeClient) startReadLoop() {
	go func() {
		defer close(c.inbox)

		for {
			mt, data, err := c.conn.Read(context.Background())
			if err != nil {
				select {
				case c.errCh <- err:
				default:
				}
				return
			}

			if mt != websocket.MessageText {
				select {
				case c.errCh <- fmt.Errorf("unsupported message type: %v", mt):
				default:
				}
				return
			}

			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				select {
				case c.errCh <- fmt.Errorf("bad json: %w", err):
				default:
				}
				return
			}
			if env.V != 1 || env.Type == "" {
				select {
				case c.errCh <- fmt.Errorf("bad envelope: v=%d type=%q", env.V, env.Type):
				default:
				}
				return
			}

			select {
			case c.inbox <- env:
			default:
				select {
				case c.errCh <- errors.New("inbox overflow: consumer too slow"):
				default:
				}
				return
			}
		}
	}()
}

// mustReadEntry waits for an entry event about id. Events for other entries
// (another moderator working at the same time) are skipped.
func (c *smokeClient) mustReadEntry(parent context.Context, wantType, id string, stepTimeout time.Duration) entryPayload {
	deadline := time.Now().Add(stepTimeout)
	for {
		env := c.mustReadUntilType(parent, wantType, time.Until(deadline))
		var p entryPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			fatalf("unmarshal %s payload: %v", wantType, err)
		}
		if p.Entry.ID == id {
			return p
		}
	}
}

func (c *smokeClient) mustReadUntilType(parent context.Context, wantType string, stepTimeout time.Duration) envelope {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for %q: %v", wantType, ctx.Err())
		case err := <-c.errCh:
			fatalf("connection error while waiting for %q: %v", wantType, err)
		case env, ok := <-c.inbox:
			if !ok {
				fatalf("connection closed while waiting for %q", wantType)
			}
			if env.Type == wantType {
				return env
			}
			if env.Type == typeError {
				var ep struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				_ = json.Unmarshal(env.Payload, &ep)
				fatalf("server error: code=%q msg=%q", ep.Code, ep.Message)
			}
			// Other event types are not part of this check.
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func closeWS(conn *websocket.Conn) {
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
