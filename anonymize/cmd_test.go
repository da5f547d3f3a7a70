package anonymize_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pagopa/anonymizer-plt/anonymize"
	"github.com/pagopa/anonymizer-plt/anonymizer"
	"github.com/pagopa/anonymizer-plt/config"
	"github.com/pagopa/anonymizer-plt/loadgen"
	"github.com/pagopa/anonymizer-plt/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	path string
	key  string
	ct   string
	body string
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestRun(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []request
	)

	fx := scenario.DefaultFixtures()[0]

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		mu.Lock()
		requests = append(requests, request{
			path: r.URL.Path,
			key:  r.Header.Get("Ocp-Apim-Subscription-Key"),
			ct:   r.Header.Get("Content-Type"),
			body: string(b),
		})
		mu.Unlock()

		_, _ = rw.Write([]byte(`{"text":"` + fx.Expected + `"}`))
	}))
	defer srv.Close()

	vars := writeFile(t, "vars.json", `{"environment":[{"anonymizeUri":"`+srv.URL+`/api/anonymize"}]}`)
	testType := writeFile(t, "smoke.json", `{"vus":1,"iterations":1}`)

	out := bytes.NewBuffer(nil)

	err := anonymize.Run(context.Background(), loadgen.Flags{Output: out}, anonymize.Flags{
		Sources: config.Sources{
			VarsPath:        vars,
			TestTypePath:    testType,
			SubscriptionKey: "abc123",
		},
		FailOnCheck: true,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, requests, 1)
	assert.Equal(t, "/api/anonymize", requests[0].path)
	assert.Equal(t, "abc123", requests[0].key)
	assert.Equal(t, "application/json", requests[0].ct)
	assert.JSONEq(t, `{"text":"`+fx.Input+`"}`, requests[0].body)

	assert.Contains(t, out.String(), "Anonymize call, Status 200\n")
	assert.Contains(t, out.String(), "✓ PIIs have been anonymized")
}

func TestRun_failOnCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	vars := writeFile(t, "vars.json", `{"environment":[{"anonymizeUri":"`+srv.URL+`"}]}`)
	out := bytes.NewBuffer(nil)

	err := anonymize.Run(context.Background(), loadgen.Flags{Output: out, Number: 3, Duration: time.Minute}, anonymize.Flags{
		Sources:     config.Sources{VarsPath: vars, SubscriptionKey: "abc123"},
		FailOnCheck: true,
		Quiet:       true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, anonymize.ErrChecksFailed))
	assert.NotContains(t, out.String(), "Anonymize call")
	assert.Contains(t, out.String(), "✗ Anonymize status is 200")
}

func TestRun_configError(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	vars := writeFile(t, "vars.json", `{"environment":[]}`)

	err := anonymize.Run(context.Background(), loadgen.Flags{Output: io.Discard}, anonymize.Flags{
		Sources: config.Sources{VarsPath: vars, SubscriptionKey: "abc123"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNoEnvironment))
	assert.Equal(t, 0, calls)
}

func TestRun_customFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(`{"text":"multa a <PERSON>"}`))
	}))
	defer srv.Close()

	vars := writeFile(t, "vars.json", `{"environment":[{"anonymizeUri":"`+srv.URL+`"}]}`)
	fixtures := writeFile(t, "fixtures.json", `[{"name":"person","input":"multa a Mario Rossi","expected":"multa a <PERSON>"}]`)

	err := anonymize.Run(context.Background(), loadgen.Flags{Output: io.Discard, Number: 5, Concurrency: 2}, anonymize.Flags{
		Sources:     config.Sources{VarsPath: vars, SubscriptionKey: "abc123"},
		Fixtures:    fixtures,
		FailOnCheck: true,
		Client:      anonymizer.Flags{Fast: true},
	})
	require.NoError(t, err)
}
