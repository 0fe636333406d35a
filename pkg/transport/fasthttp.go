package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

type fastHTTPTransport struct {
	client *fasthttp.Client
}

var _ Transport = (*fastHTTPTransport)(nil)

// NewFastHTTP creates a fasthttp backed transport.
func NewFastHTTP() *fastHTTPTransport {
	return &fastHTTPTransport{
		client: &fasthttp.Client{
			Name:                "botapi",
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

type fastHTTPResult struct {
	response *Response
	err      error
}

func (f *fastHTTPTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Hour)
	}

	resultCH := make(chan fastHTTPResult, 1)
	go func() {
		resultCH <- f.do(url, header, body, deadline)
	}()

	// On cancellation the request is abandoned; do releases its own buffers.
	select {
	case result := <-resultCH:
		return result.response, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fastHTTPTransport) do(url string, header http.Header, body []byte, deadline time.Time) fastHTTPResult {
	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)
	response := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(response)

	request.SetRequestURI(url)
	request.Header.SetMethod(http.MethodPost)
	for key, values := range header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.SetBody(body)

	err := f.client.DoDeadline(request, response, deadline)
	if err != nil {
		return fastHTTPResult{err: fmt.Errorf("send post request: %w", err)}
	}

	return fastHTTPResult{
		response: &Response{
			StatusCode:  response.StatusCode(),
			ContentType: string(response.Header.ContentType()),
			Body:        append([]byte(nil), response.Body()...),
		},
	}
}

func (f *fastHTTPTransport) Close() error {
	f.client.CloseIdleConnections()

	return nil
}
