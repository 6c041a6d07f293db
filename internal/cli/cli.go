package cli

import (
	"fmt"
	"io"

	"github.com/specialistvlad/doop/internal/app"
	"github.com/specialistvlad/doop/internal/config"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	errW   io.Writer
	loader config.Loader

	configPaths []string
	logLevel    string
	logFormat   string
	logFile     string
	orphans     bool
}

// NewRootCommand builds the `doop` command tree. Command output goes to
// outW, logs go to errW.
func NewRootCommand(outW, errW io.Writer, loader config.Loader) *cobra.Command {
	opts := &rootOptions{errW: errW, loader: loader}

	cmd := &cobra.Command{
		Use:   "doop",
		Short: "Split single-file components into addressable blocks",
		Long: `doop reads .doop files made of tagged blocks such as

  <script endpoint>
  app.get('/', handler);
  </script>

and exposes every block on its own, together with an index that imports
them in order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&opts.configPaths, "config", "c", nil, "Configuration file or directory (repeatable). Defaults to ./doop.hcl.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&opts.logFile, "log-file", "", "Also append logs to this file.")
	flags.BoolVar(&opts.orphans, "orphans", false, "Report text found outside of blocks.")

	cmd.AddCommand(
		newBlocksCmd(opts),
		newIndexCmd(opts),
		newSourceCmd(opts),
		newFetchCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// newApp builds the App for cmd. Flags only override the configuration
// file when they were given explicitly.
func (o *rootOptions) newApp(cmd *cobra.Command, override func(*app.Config)) (*app.App, error) {
	cfg := app.Config{
		ConfigPaths: o.configPaths,
		LogLevel:    o.logLevel,
		LogFormat:   o.logFormat,
		LogFile:     o.logFile,
	}
	if cmd.Flags().Changed("orphans") {
		orphans := o.orphans
		cfg.Orphans = &orphans
	}
	if override != nil {
		override(&cfg)
	}

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	a, err := app.NewApp(o.errW, appConfig, o.loader)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	return a, nil
}
