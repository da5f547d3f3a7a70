package anonymizer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pagopa/anonymizer-plt/report"
	"github.com/vearutop/dynhist-go"
	"golang.org/x/net/http2"
)

// HTTPClient sends anonymization requests with net/http.
type HTTPClient struct {
	dnsHist  *dynhist.Collector
	connHist *dynhist.Collector
	tlsHist  *dynhist.Collector

	mu       sync.Mutex
	respCode map[int]int
	respBody map[int][]byte

	bytesWritten int64
	bytesRead    int64

	f  Flags
	tr http.RoundTripper
}

type countingConn struct {
	bytesRead    *int64
	bytesWritten *int64
	net.Conn
}

// Read reads data from the connection.
func (c countingConn) Read(b []byte) (n int, err error) {
	n, err = c.Conn.Read(b)
	atomic.AddInt64(c.bytesRead, int64(n))

	return n, err
}

// Write writes data to the connection.
func (c countingConn) Write(b []byte) (n int, err error) {
	n, err = c.Conn.Write(b)
	atomic.AddInt64(c.bytesWritten, int64(n))

	return n, err
}

func (c *HTTPClient) makeTransport() *http.Transport {
	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     c.f.NoKeepalive,
	}

	if c.f.Concurrency > 0 {
		t.MaxIdleConnsPerHost = c.f.Concurrency
	}

	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return conn, err
		}

		return countingConn{
			bytesRead:    &c.bytesRead,
			bytesWritten: &c.bytesWritten,
			Conn:         conn,
		}, nil
	}

	return t
}

// NewHTTPClient creates net/http anonymizer.
func NewHTTPClient(f Flags) (*HTTPClient, error) {
	c := &HTTPClient{
		f:        f,
		dnsHist:  &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		connHist: &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		tlsHist:  &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		respCode: make(map[int]int, 5),
		respBody: make(map[int][]byte, 5),
	}

	switch {
	case f.HTTP3:
		if !HTTP3Available {
			return nil, errors.New("HTTP/3 is not available in this build")
		}

		c.tr = c.makeTransport3()
	case f.HTTP2:
		t := c.makeTransport()
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("failed to configure HTTP/2 transport: %w", err)
		}

		c.tr = t
	default:
		c.tr = c.makeTransport()
	}

	return c, nil
}

// Anonymize sends a single anonymization request.
func (c *HTTPClient) Anonymize(ctx context.Context, uri, key, text string) (*Response, error) {
	body, err := MarshalRequest(text)
	if err != nil {
		return nil, err
	}

	if c.f.Timeout > 0 {
		var cancel func()

		ctx, cancel = context.WithTimeout(ctx, c.f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}

	for k, v := range Headers(key) {
		req.Header.Set(k, v)
	}

	req.Header.Set("User-Agent", "anonymizer-plt")

	var dnsStart, connStart, tlsStart time.Time

	trace := &httptrace.ClientTrace{
		DNSStart: func(_ httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			c.dnsHist.Add(1000 * time.Since(dnsStart).Seconds())
		},

		ConnectStart: func(_, _ string) {
			connStart = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			c.connHist.Add(1000 * time.Since(connStart).Seconds())
		},

		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			c.tlsHist.Add(1000 * time.Since(tlsStart).Seconds())
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := c.tr.RoundTrip(req)
	if err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URI: uri, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.mu.Lock()
	c.respCode[resp.StatusCode]++

	if c.respCode[resp.StatusCode] == 1 {
		if ce := resp.Header.Get("Content-Encoding"); ce != "" {
			c.respBody[resp.StatusCode] = []byte("<" + ce + "-encoded-content>")
		} else {
			c.respBody[resp.StatusCode] = report.PeekBody(respBody, 1000)
		}
	}
	c.mu.Unlock()

	return &Response{Status: resp.StatusCode, Body: respBody}, nil
}

// Print prints transport statistics.
func (c *HTTPClient) Print(w io.Writer) {
	fmt.Fprintln(w)

	if c.dnsHist.Count > 0 {
		fmt.Fprintln(w, "DNS latency distribution in ms:")
		fmt.Fprintln(w, c.dnsHist.String())
	}

	if c.tlsHist.Count > 0 {
		fmt.Fprintln(w, "TLS handshake latency distribution in ms:")
		fmt.Fprintln(w, c.tlsHist.String())
	}

	if c.connHist.Count > 0 {
		fmt.Fprintln(w, "Connection latency distribution in ms:")
		fmt.Fprintln(w, c.connHist.String())
	}

	c.mu.Lock()
	printResponses(w, c.respCode, c.respBody)
	c.mu.Unlock()

	fmt.Fprintln(w, "Bytes read", report.ByteSize(atomic.LoadInt64(&c.bytesRead)))
	fmt.Fprintln(w, "Bytes written", report.ByteSize(atomic.LoadInt64(&c.bytesWritten)))
}

func printResponses(w io.Writer, respCode map[int]int, respBody map[int][]byte) {
	if len(respCode) == 0 {
		return
	}

	codes := make([]int, 0, len(respCode))
	for code := range respCode {
		codes = append(codes, code)
	}

	sort.Ints(codes)

	fmt.Fprintln(w, "Responses by status code")

	for _, code := range codes {
		fmt.Fprintf(w, "[%d %s] %d\n", code, statusText(code), respCode[code])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample responses")

	for _, code := range codes {
		fmt.Fprintf(w, "[%d]\n%s\n", code, string(respBody[code]))
	}

	fmt.Fprintln(w)
}
