package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"resty.dev/v3"
)

type restyTransport struct {
	httpClient *resty.Client
}

var _ Transport = (*restyTransport)(nil)

// NewResty creates a resty backed transport. HTTP/2 connections are health
// checked with pings so a silently dropped long poll is noticed.
func NewResty() (*restyTransport, error) {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	h2, err := http2.ConfigureTransports(base)
	if err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 15 * time.Second

	httpClient := resty.New().SetTransport(base)

	return &restyTransport{
		httpClient: httpClient,
	}, nil
}

func (r *restyTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error) {
	request := r.httpClient.R().
		SetContext(ctx).
		SetHeaderMultiValues(header).
		SetBody(body)

	response, err := request.Post(url)
	if err != nil {
		return nil, fmt.Errorf("send post request: %w", err)
	}

	return &Response{
		StatusCode:  response.StatusCode(),
		ContentType: response.Header().Get("Content-Type"),
		Body:        response.Bytes(),
	}, nil
}

func (r *restyTransport) Close() error {
	return r.httpClient.Close()
}
