package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/bootstrap"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/runtime/terminal/export"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/config"
	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/services/finance"
)

const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
)

// ServiceLoader builds the finance service once flags are parsed.
type ServiceLoader func(ctx context.Context, opts bootstrap.Options) (finance.Service, error)

type reportHandler interface {
	Handle(report *domain.Report) error
}

// CLI represents the command-line interface
type CLI struct {
	load    ServiceLoader
	output  io.Writer
	logs    io.Writer
	rootCmd *cobra.Command

	opts    bootstrap.Options
	format  string
	verbose bool
	service finance.Service
}

// Options contain configuration for the CLI
type Options struct {
	Load   ServiceLoader
	Output io.Writer
	// Logs receives diagnostics; defaults to stderr.
	Logs io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logs == nil {
		opts.Logs = os.Stderr
	}

	cli := &CLI{
		load:   opts.Load,
		output: opts.Output,
		logs:   opts.Logs,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, used by tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "appstore",
		Short:         "App Store Connect sales and finance reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.setup(cmd)
		},
	}
	cmd.SetOut(cli.output)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.opts.Profile, "profile", "p", config.DefaultProfile, "Credentials profile")
	flags.StringVar(&cli.opts.ProfilesPath, "profiles", config.DefaultProfilesPath(), "Path to the credentials profiles file")
	flags.StringVarP(&cli.opts.SettingsPath, "settings", "s", "", "Optional YAML settings file")
	flags.StringVarP(&cli.format, "output", "o", formatText, "Output format: text, table or json")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "Log requests and slice outcomes")

	cmd.AddCommand(
		cli.newSalesCmd(),
		cli.newMetricsCmd(),
		cli.newMonthlyCmd(),
		cli.newFinancialCmd(),
		cli.newSubscriptionsCmd(),
		cli.newRenewalsCmd(),
		cli.newSubscriptionAnalyticsCmd(),
		cli.newAppsCmd(),
	)
	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command) error {
	switch cli.format {
	case formatText, formatTable, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q", cli.format)
	}

	level := zerolog.WarnLevel
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logs}).Level(level).With().Timestamp().Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	if cli.load == nil {
		return fmt.Errorf("%w: no service loader configured", domain.ErrConfiguration)
	}
	svc, err := cli.load(ctx, cli.opts)
	if err != nil {
		return err
	}
	cli.service = svc
	return nil
}

// emit writes report in the selected format; payload is the JSON form.
func (cli *CLI) emit(report *domain.Report, payload any) error {
	var handler reportHandler
	switch cli.format {
	case formatJSON:
		enc := json.NewEncoder(cli.output)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case formatTable:
		handler = export.NewReporter(cli.output)
	default:
		handler = NewReporter(cli.output)
	}
	return handler.Handle(report)
}
