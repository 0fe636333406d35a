// Package botapi is a schema-less client for the Telegram Bot API.
//
// Any method of the remote API can be invoked through Client.Call by its
// snake_case name; arguments are sent as JSON unless one of them is a *File,
// in which case the request becomes multipart form data. Updates are
// consumed with an UpdateStream, which long-polls get_updates, tracks the
// offset and retries transient failures.
//
//	client, err := botapi.New(botapi.Options{Token: token})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	updates := client.Updates(botapi.StreamOptions{})
//	for {
//		update, more, err := updates.Next(ctx)
//		if err != nil || !more {
//			return err
//		}
//		...
//	}
package botapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/VladPetriv/botapi/pkg/transport"
	"github.com/juju/clock"
)

// Version is the library version reported in the User-Agent header.
const Version = "1.0.0"

// DefaultBaseURL is the public Bot API endpoint template.
const DefaultBaseURL = "https://api.telegram.org/bot{token}/{method}"

// RequestTimeout bounds every call. The server cuts requests off after 60
// seconds; waiting one second longer lets the server close the connection first.
const RequestTimeout = 61 * time.Second

var userAgent = "botapi/" + Version

// Options represents options that required for creating new instance of Client.
type Options struct {
	// Token represents telegram bot token.
	Token string
	// BaseURL is the endpoint template, it must contain {token} and {method}. (Defaults to DefaultBaseURL)
	BaseURL string

	// Transport sends the requests. (Defaults to the resty transport)
	Transport transport.Transport
	// Logger receives diagnostics. (Defaults to a no-op logger)
	Logger *logger.Logger
	// Methods caches validated method names. (Defaults to DefaultMethods)
	Methods *MethodCache
	// Clock drives retry backoff of update streams. (Defaults to the wall clock)
	Clock clock.Clock
}

// Client calls Bot API methods. It is safe for concurrent use.
type Client struct {
	token     string
	baseURL   string
	transport transport.Transport
	logger    *logger.Logger
	methods   *MethodCache
	clock     clock.Clock

	mu        sync.Mutex
	closing   bool
	streams   []*UpdateStream
	closeOnce sync.Once
	closeErr  error

	lifecycle *lifecycle
}

// lifecycle is kept apart from Client so the GC cleanup can observe it
// without keeping the Client reachable.
type lifecycle struct {
	closed atomic.Bool
	logger *logger.Logger
}

var errInvalidBaseURL = errors.New("base url must contain {token} and {method} placeholders")

// New creates a client and opens its transport.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("token is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.Contains(baseURL, "{token}") || !strings.Contains(baseURL, "{method}") {
		return nil, errInvalidBaseURL
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	methods := opts.Methods
	if methods == nil {
		methods = DefaultMethods
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	tr := opts.Transport
	if tr == nil {
		var err error
		tr, err = transport.NewResty()
		if err != nil {
			return nil, fmt.Errorf("open transport: %w", err)
		}
	}

	client := &Client{
		token:     opts.Token,
		baseURL:   baseURL,
		transport: tr,
		logger:    log.Named("botapi.Client"),
		methods:   methods,
		clock:     clk,
		lifecycle: &lifecycle{logger: log},
	}

	runtime.AddCleanup(client, func(state *lifecycle) {
		if !state.closed.Load() {
			state.logger.Warn().Msg("botapi client was garbage collected without being closed, call Close or use With")
		}
	}, client.lifecycle)

	return client, nil
}

// With creates a client, passes it to fn and closes it on every exit path.
func With(opts Options, fn func(client *Client) error) (err error) {
	client, err := New(opts)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := client.Close()
		if err == nil {
			err = closeErr
		}
	}()

	return fn(client)
}

// Call invokes the remote method name with args and returns the "result"
// field of the answer. It never retries.
func (c *Client) Call(ctx context.Context, method string, args Args) (any, error) {
	if c.lifecycle.closed.Load() {
		return nil, ErrClosed
	}

	wireName, err := c.methods.Normalize(method)
	if err != nil {
		return nil, err
	}

	header, body, err := Encode(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s arguments: %w", method, err)
	}
	header.Set("User-Agent", userAgent)

	requestCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	c.logger.Debug().Str("method", wireName).Int("bodySize", len(body)).Msg("sending request")

	response, err := c.transport.Post(requestCtx, c.requestURL(wireName), header, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &ProtocolError{
			Message: "send request",
			Err:     &redactedError{err: err, secret: c.token},
		}
	}

	return parseResponse(response)
}

// CallInto is Call followed by decoding the result into out.
func (c *Client) CallInto(ctx context.Context, method string, args Args, out any) error {
	result, err := c.Call(ctx, method, args)
	if err != nil {
		return err
	}

	return decodeInto(result, out)
}

func (c *Client) requestURL(wireName string) string {
	return strings.NewReplacer("{token}", c.token, "{method}", wireName).Replace(c.baseURL)
}

func parseResponse(response *transport.Response) (any, error) {
	if !strings.Contains(response.ContentType, "json") {
		return nil, &ProtocolError{
			StatusCode: response.StatusCode,
			Content:    response.Body,
			Message:    fmt.Sprintf("unexpected content type %q", response.ContentType),
		}
	}

	content, err := decodeValue(response.Body)
	if err != nil {
		return nil, &ProtocolError{
			StatusCode: response.StatusCode,
			Content:    response.Body,
			Message:    "decode response body",
			Err:        err,
		}
	}

	envelope, _ := content.(*Dict)

	if response.StatusCode != http.StatusOK {
		msg := "unexpected status code"
		if description, ok := envelope.String("description"); ok {
			msg += ", the server said: " + description
		}

		return nil, &ProtocolError{
			StatusCode: response.StatusCode,
			Content:    content,
			Message:    msg,
		}
	}

	if ok, _ := envelope.Bool("ok"); !ok {
		description, _ := envelope.String("description")

		return nil, &RemoteError{
			StatusCode:  response.StatusCode,
			Description: description,
			Content:     content,
		}
	}

	result, _ := envelope.Get("result")

	return result, nil
}

// Updates creates an update stream bound to the client. Client.Close closes
// every stream it created.
func (c *Client) Updates(opts StreamOptions) *UpdateStream {
	stream := newUpdateStream(c, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		stream.markClosed()
		return stream
	}
	c.streams = append(c.streams, stream)

	return stream
}

func (c *Client) forget(stream *UpdateStream) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.streams {
		if s == stream {
			c.streams = append(c.streams[:i], c.streams[i+1:]...)
			return
		}
	}
}

// Close flushes the offsets of open streams and releases the transport.
// Only the first call does anything.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		streams := c.streams
		c.streams = nil
		c.mu.Unlock()

		for _, stream := range streams {
			_ = stream.Close()
		}

		c.lifecycle.closed.Store(true)

		err := c.transport.Close()
		if err != nil {
			c.closeErr = fmt.Errorf("close transport: %w", err)
		}
	})

	return c.closeErr
}

// redactedError hides the bot token, which is part of every request URL.
type redactedError struct {
	err    error
	secret string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.secret, "<token>")
}

func (e *redactedError) Unwrap() error {
	return e.err
}
