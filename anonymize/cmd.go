// Package anonymize implements anonymization endpoint load test command.
package anonymize

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pagopa/anonymizer-plt/anonymizer"
	"github.com/pagopa/anonymizer-plt/config"
	"github.com/pagopa/anonymizer-plt/loadgen"
	"github.com/pagopa/anonymizer-plt/scenario"
)

// ErrChecksFailed is returned when some checks failed and failing is requested.
var ErrChecksFailed = errors.New("checks failed")

// Flags describes anonymize command parameters.
type Flags struct {
	Sources     config.Sources
	Client      anonymizer.Flags
	Fixtures    string
	Quiet       bool
	FailOnCheck bool
}

// AddCommand registers anonymize command into CLI app.
func AddCommand(lf *loadgen.Flags) {
	var f Flags

	cmd := kingpin.Command("anonymize", "Load test PII anonymization endpoint")

	cmd.Flag("vars", "Path to vars JSON with environment list, local or s3://bucket/key (env VARS).").
		Envar("VARS").Required().StringVar(&f.Sources.VarsPath)
	cmd.Flag("test-type", "Path to run options JSON (env TEST_TYPE).").
		Envar("TEST_TYPE").StringVar(&f.Sources.TestTypePath)
	cmd.Flag("subscription-key", "API subscription key (env SUBSCRIPTION_KEY).").
		Envar("SUBSCRIPTION_KEY").StringVar(&f.Sources.SubscriptionKey)

	cmd.Flag("fixtures", "Path to JSON array of {name,input,expected} fixtures, embedded set by default.").
		StringVar(&f.Fixtures)
	cmd.Flag("quiet", "Do not log every call.").BoolVar(&f.Quiet)
	cmd.Flag("fail-on-check", "Exit with error if any check failed.").BoolVar(&f.FailOnCheck)

	cmd.Flag("fast", "Use fasthttp to achieve higher request rate.").BoolVar(&f.Client.Fast)
	cmd.Flag("http2", "Use HTTP/2.").BoolVar(&f.Client.HTTP2)

	if anonymizer.HTTP3Available {
		cmd.Flag("http3", "Use quic-go HTTP/3.").BoolVar(&f.Client.HTTP3)
	}

	cmd.Flag("no-keepalive", "Disable keep-alive connections.").BoolVar(&f.Client.NoKeepalive)
	cmd.Flag("timeout", "Request timeout, 0 disables timeout.").Default("0s").DurationVar(&f.Client.Timeout)

	cmd.Flag("s3-region", "Region of S3 with vars.").Default("eu-central-1").StringVar(&f.Sources.S3.Region)
	cmd.Flag("s3-url", "Optional S3 URL (if not AWS).").StringVar(&f.Sources.S3.URL)
	cmd.Flag("s3-path-style", "To use path-style addressing, i.e., `http://s3.amazonaws.com/BUCKET/KEY`.").
		BoolVar(&f.Sources.S3.PathStyle)
	cmd.Flag("s3-access-key", "Access key/id (env AWS_ACCESS_KEY).").
		Envar("AWS_ACCESS_KEY").StringVar(&f.Sources.S3.AccessKey)
	cmd.Flag("s3-secret-key", "Secret key (env AWS_SECRET_KEY).").
		Envar("AWS_SECRET_KEY").StringVar(&f.Sources.S3.SecretKey)
	cmd.Flag("s3-session-token", "Session token (env AWS_SESSION_TOKEN).").
		Envar("AWS_SESSION_TOKEN").StringVar(&f.Sources.S3.SessionToken)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		return Run(context.Background(), *lf, f)
	})
}

// Run loads configuration and runs anonymization scenario.
func Run(ctx context.Context, lf loadgen.Flags, f Flags) error {
	cfg, err := config.Load(ctx, f.Sources)
	if err != nil {
		return err
	}

	cfg.Options.Apply(&lf)
	lf.Prepare()

	fixtures := scenario.DefaultFixtures()

	if f.Fixtures != "" {
		if fixtures, err = scenario.LoadFixtures(f.Fixtures); err != nil {
			return err
		}
	}

	f.Client.Concurrency = lf.Concurrency

	client, err := anonymizer.New(f.Client)
	if err != nil {
		return fmt.Errorf("failed to init anonymizer client: %w", err)
	}

	var logOut io.Writer = lf.Output
	if f.Quiet || lf.LiveUI {
		logOut = nil
	}

	s, err := scenario.NewAnonymize(cfg, client, fixtures, logOut)
	if err != nil {
		return err
	}

	fmt.Fprintln(lf.Output, "Target:", cfg.AnonymizeURI)

	if err := scenario.Run(ctx, lf, s); err != nil {
		return err
	}

	s.Print(lf.Output)

	if f.FailOnCheck && s.Checks().Failed() > 0 {
		return fmt.Errorf("%w: %d failed evaluations", ErrChecksFailed, s.Checks().Failed())
	}

	return nil
}
