// Package anonymizer implements client of PII anonymization endpoint.
package anonymizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Request body keeps <, > and & as is.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// SubscriptionKeyHeader carries API management credential.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// Request is a body of anonymization call.
type Request struct {
	Text string `json:"text"`
}

// Response is a raw result of anonymization call.
//
// Body is nil when no body was received, empty body is a non-nil empty slice.
type Response struct {
	Status int
	Body   []byte
}

// Anonymizer sends text for anonymization.
type Anonymizer interface {
	Anonymize(ctx context.Context, uri, key, text string) (*Response, error)
}

// Printer reports transport statistics.
type Printer interface {
	Print(w io.Writer)
}

// TransportError indicates network level failure, no response was received.
type TransportError struct {
	URI string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("anonymize %s: %v", e.URI, e.Err)
}

// Unwrap returns underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Flags control HTTP transport setup.
type Flags struct {
	Fast        bool
	HTTP2       bool
	HTTP3       bool
	NoKeepalive bool

	// Timeout of a single request, 0 means no timeout.
	Timeout time.Duration

	// Concurrency sizes idle connection pool.
	Concurrency int
}

// MarshalRequest encodes anonymization request body.
func MarshalRequest(text string) ([]byte, error) {
	return json.Marshal(Request{Text: text})
}

// Headers returns headers of anonymization request.
func Headers(key string) map[string]string {
	return map[string]string{
		SubscriptionKeyHeader: key,
		"Content-Type":        "application/json",
	}
}

// New creates anonymizer with transport selected by flags.
func New(f Flags) (Anonymizer, error) {
	if f.Fast {
		if f.HTTP2 || f.HTTP3 {
			return nil, errors.New("fasthttp transport does not support HTTP/2 or HTTP/3")
		}

		return NewFastClient(f), nil
	}

	c, err := NewHTTPClient(f)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func statusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}

	return "Unknown"
}
