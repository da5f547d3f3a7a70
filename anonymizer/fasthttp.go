package anonymizer

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pagopa/anonymizer-plt/report"
	"github.com/valyala/fasthttp"
)

// FastClient sends anonymization requests with fasthttp transport.
type FastClient struct {
	bytesWritten int64
	bytesRead    int64

	mu       sync.Mutex
	respCode map[int]int
	respBody map[int][]byte

	f      Flags
	client *fasthttp.Client
}

// NewFastClient creates fasthttp anonymizer.
func NewFastClient(f Flags) *FastClient {
	c := &FastClient{
		f:        f,
		respCode: make(map[int]int, 5),
		respBody: make(map[int][]byte, 5),
	}

	c.client = &fasthttp.Client{Name: "anonymizer-plt"}

	if f.Concurrency > 0 {
		c.client.MaxConnsPerHost = f.Concurrency
	}

	c.client.Dial = func(addr string) (net.Conn, error) {
		conn, err := fasthttp.Dial(addr)
		if err != nil {
			return conn, err
		}

		return countingConn{
			bytesRead:    &c.bytesRead,
			bytesWritten: &c.bytesWritten,
			Conn:         conn,
		}, nil
	}

	return c
}

// Anonymize sends a single anonymization request.
func (c *FastClient) Anonymize(ctx context.Context, uri, key, text string) (*Response, error) {
	body, err := MarshalRequest(text)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(uri)
	req.SetBody(body)

	for k, v := range Headers(key) {
		req.Header.Set(k, v)
	}

	if c.f.NoKeepalive {
		req.SetConnectionClose()
	}

	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else if c.f.Timeout > 0 {
		err = c.client.DoTimeout(req, resp, c.f.Timeout)
	} else {
		err = c.client.Do(req, resp)
	}

	if err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}

	// Response is released on return, body has to be copied.
	respBody := append([]byte{}, resp.Body()...)
	status := resp.StatusCode()

	c.mu.Lock()
	c.respCode[status]++

	if c.respCode[status] == 1 {
		if ce := resp.Header.Peek(fasthttp.HeaderContentEncoding); len(ce) > 0 {
			c.respBody[status] = []byte("<" + string(ce) + "-encoded-content>")
		} else {
			c.respBody[status] = report.PeekBody(respBody, 1000)
		}
	}
	c.mu.Unlock()

	return &Response{Status: status, Body: respBody}, nil
}

// Print prints transport statistics.
func (c *FastClient) Print(w io.Writer) {
	fmt.Fprintln(w)

	c.mu.Lock()
	printResponses(w, c.respCode, c.respBody)
	c.mu.Unlock()

	fmt.Fprintln(w, "Bytes read", report.ByteSize(atomic.LoadInt64(&c.bytesRead)))
	fmt.Fprintln(w, "Bytes written", report.ByteSize(atomic.LoadInt64(&c.bytesWritten)))
}
