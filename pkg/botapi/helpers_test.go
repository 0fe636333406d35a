package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/VladPetriv/botapi/pkg/transport"
	"github.com/juju/clock"
	"github.com/stretchr/testify/require"
)

const testToken = "123:secret"

type recordedRequest struct {
	URL    string
	Header http.Header
	Body   []byte
}

func (r recordedRequest) args(t *testing.T) map[string]any {
	t.Helper()

	decoder := json.NewDecoder(bytes.NewReader(r.Body))
	decoder.UseNumber()

	var args map[string]any
	require.NoError(t, decoder.Decode(&args))

	return args
}

type respondFunc func(ctx context.Context, call int, req recordedRequest) (*transport.Response, error)

type fakeTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  respondFunc
	closed   int
}

var _ transport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (*transport.Response, error) {
	req := recordedRequest{
		URL:    url,
		Header: header.Clone(),
		Body:   append([]byte(nil), body...),
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	call := len(f.requests)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.respond(ctx, call, req)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed++

	return nil
}

func (f *fakeTransport) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        []byte(body),
	}
}

// instantClock fires every timer immediately and remembers the requested delays.
type instantClock struct {
	clock.Clock

	mu     sync.Mutex
	delays []time.Duration
}

func newInstantClock() *instantClock {
	return &instantClock{Clock: clock.WallClock}
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Time{}

	return ch
}

func (c *instantClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.delays...)
}

// stoppedClock never fires.
type stoppedClock struct {
	clock.Clock
}

func (stoppedClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func newTestClient(t *testing.T, clk clock.Clock, respond respondFunc) (*Client, *fakeTransport) {
	t.Helper()

	tr := &fakeTransport{respond: respond}

	client, err := New(Options{
		Token:     testToken,
		BaseURL:   "http://bot.test/bot{token}/{method}",
		Transport: tr,
		Methods:   NewMethodCache(),
		Clock:     clk,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, tr
}
