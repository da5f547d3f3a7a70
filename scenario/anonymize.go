package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pagopa/anonymizer-plt/anonymizer"
	"github.com/pagopa/anonymizer-plt/config"
	"github.com/pagopa/anonymizer-plt/report"
)

// Check names.
const (
	CheckStatus     = "Anonymize status is 200"
	CheckBody       = "Anonymize body not null"
	CheckAnonymized = "PIIs have been anonymized"
)

// CountTransportError labels iterations without response.
const CountTransportError = "transport_error"

// CheckResult is an outcome of a single check.
type CheckResult struct {
	Name string
	OK   bool
	Err  error
}

// Verify evaluates all checks of anonymization response, no check is skipped.
func Verify(resp *anonymizer.Response, expected string) []CheckResult {
	res := []CheckResult{
		{Name: CheckStatus, OK: resp.Status == 200},
		{Name: CheckBody, OK: resp.Body != nil},
	}

	anonymized := CheckResult{Name: CheckAnonymized}

	// Field lookup is case-sensitive, {"Text":...} does not count.
	var (
		body map[string]jsoniter.RawMessage
		text string
	)

	if err := json.Unmarshal(resp.Body, &body); err != nil {
		anonymized.Err = fmt.Errorf("failed to decode body: %w", err)

		return append(res, anonymized)
	}

	raw, ok := body["text"]
	if !ok {
		anonymized.Err = errors.New("text is missing in body")

		return append(res, anonymized)
	}

	if err := json.Unmarshal(raw, &text); err != nil {
		anonymized.Err = fmt.Errorf("text is not a string: %w", err)

		return append(res, anonymized)
	}

	anonymized.OK = text == expected

	return append(res, anonymized)
}

// Anonymize sends fixture texts to anonymization endpoint and checks results.
type Anonymize struct {
	cfg      config.RunConfiguration
	client   anonymizer.Anonymizer
	fixtures []Fixture
	logger   *log.Logger
	checks   *Checks

	mu       sync.Mutex
	respCode map[int]int
	failed   int
}

// NewAnonymize creates anonymization scenario.
//
// Iteration log lines are written to out, nil out disables them.
func NewAnonymize(cfg config.RunConfiguration, client anonymizer.Anonymizer, fixtures []Fixture, out io.Writer) (*Anonymize, error) {
	if client == nil {
		return nil, errors.New("anonymizer client is required")
	}

	if len(fixtures) == 0 {
		return nil, ErrNoFixtures
	}

	s := &Anonymize{
		cfg:      cfg,
		client:   client,
		fixtures: fixtures,
		checks:   NewChecks(CheckStatus, CheckBody, CheckAnonymized),
		respCode: make(map[int]int, 5),
	}

	if out != nil {
		s.logger = log.New(out, "", 0)
	}

	return s, nil
}

// Setup does nothing.
func (s *Anonymize) Setup(_ context.Context) (interface{}, error) {
	return nil, nil
}

// Run sends a single fixture and records checks.
//
// Failed checks do not fail iteration, transport error does.
func (s *Anonymize) Run(ctx context.Context, i int, _ interface{}) error {
	fx := s.fixtures[i%len(s.fixtures)]

	resp, err := s.client.Anonymize(ctx, s.cfg.AnonymizeURI, s.cfg.SubscriptionKey, fx.Input)
	if err != nil {
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()

		return fmt.Errorf("%s: %w", fx.Name, err)
	}

	if s.logger != nil {
		s.logger.Println("Anonymize call, Status " + strconv.Itoa(resp.Status))
	}

	s.mu.Lock()
	s.respCode[resp.Status]++
	s.mu.Unlock()

	for _, r := range Verify(resp, fx.Expected) {
		s.checks.Record(r.Name, r.OK)
	}

	return nil
}

// Teardown does nothing.
func (s *Anonymize) Teardown(_ context.Context, _ interface{}) error {
	return nil
}

// RequestCounts returns distribution by status code.
func (s *Anonymize) RequestCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make(map[string]int, len(s.respCode)+1)
	for code, cnt := range s.respCode {
		res[strconv.Itoa(code)] = cnt
	}

	if s.failed > 0 {
		res[CountTransportError] = s.failed
	}

	return res
}

// Checks returns check recorder.
func (s *Anonymize) Checks() *Checks {
	return s.checks
}

// Print reports check results and transport statistics.
func (s *Anonymize) Print(w io.Writer) {
	report.PrintChecks(w, s.checks.Stats())

	if p, ok := s.client.(anonymizer.Printer); ok {
		p.Print(w)
	}
}
