package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/pipeline"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// analysisFlags are the flags shared by every command that analyzes an
// inventory.
type analysisFlags struct {
	signature string
	keyring   string
	noCache   bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.keyring, "keyring", "", "OpenPGP keyring to verify the inventory signature with")
	cmd.Flags().StringVar(&f.signature, "signature", "", "detached inventory signature (default <inventory>.asc)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

func (f analysisFlags) options(input string, cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		InventoryPath: input,
		Config:        cfg,
		KeyringPath:   f.keyring,
		SignaturePath: f.signature,
	}
}

// analysis bundles the runner and result of one CLI analysis run.
type analysis struct {
	runner *pipeline.Runner
	result *pipeline.Result
}

func (a *analysis) Close() error { return a.runner.Close() }

// analyze loads the configuration, builds a runner and analyzes input.
// The caller must close the returned analysis.
func (c *CLI) analyze(ctx context.Context, input string, flags analysisFlags) (*analysis, error) {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}

	p := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s...", input))
	spinner.Start()

	opts := flags.options(input, cfg)
	opts.Logger = logger
	result, err := runner.Analyze(ctx, opts)
	if err != nil {
		p.fail("analysis failed", err)
		if spinner.Cancelled() {
			spinner.Stop()
		} else {
			spinner.StopWithError(fmt.Sprintf("Analysis of %s failed", input))
		}
		runner.Close()
		return nil, err
	}
	spinner.Stop()
	p.done("analyzed inventory",
		"archives", result.Stats.Archives,
		"severity", result.Report.Severity,
		"run", result.RunID)

	return &analysis{runner: runner, result: result}, nil
}

// ExitError carries a process exit code for a command that completed but
// whose outcome should fail the invocation.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeSeverity is returned when the report severity reaches --fail-on.
const exitCodeSeverity = 2

// parseFailOn parses the --fail-on flag. An empty value disables the check.
func parseFailOn(threshold string) (*resolve.Severity, error) {
	if threshold == "" {
		return nil, nil
	}
	limit, err := resolve.ParseSeverity(threshold)
	if err != nil {
		return nil, err
	}
	return &limit, nil
}

// checkFailOn returns an ExitError when report reaches limit.
func checkFailOn(report *resolve.Report, limit *resolve.Severity) error {
	if limit == nil || !report.Severity.AtLeast(*limit) {
		return nil
	}
	return &ExitError{
		Code: exitCodeSeverity,
		Err:  fmt.Errorf("report severity %s reaches --fail-on %s", report.Severity, *limit),
	}
}
