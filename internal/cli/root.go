package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/saucerest/internal/app"
	"github.com/samvad-hq/saucerest/internal/config"
	"github.com/samvad-hq/saucerest/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// AppFactory builds the application for one command invocation. The
// returned func releases it.
type AppFactory func(ctx context.Context) (*app.App, func() error, error)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(defaultAppFactory, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// SetVersion sets the version info
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

func defaultAppFactory(ctx context.Context) (*app.App, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(cfg)
	log.DebugObj("saucerest starting", "config", cfg.Redacted())

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return a, func() error {
		err := a.Close()
		_ = log.Sync()
		return err
	}, nil
}

// session carries the lazily built App through a command run.
type session struct {
	factory AppFactory
	out     io.Writer
	app     *app.App
	release func() error
}

func (s *session) open(cmd *cobra.Command) (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, release, err := s.factory(cmd.Context())
	if err != nil {
		return nil, err
	}
	s.app, s.release = a, release
	return a, nil
}

func (s *session) close() error {
	if s.release == nil {
		return nil
	}
	err := s.release()
	s.app, s.release = nil, nil
	return err
}

// closeInto closes the session and reports its error through err unless err
// already holds one.
func (s *session) closeInto(err *error) {
	if cerr := s.close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// NewRootCommand assembles the command tree. Results are written to out.
func NewRootCommand(factory AppFactory, out io.Writer) *cobra.Command {
	s := &session{factory: factory, out: out}

	root := &cobra.Command{
		Use:   "saucerest",
		Short: "Command line client for the Sauce Labs REST API",
		Long: `saucerest talks to the Sauce Labs REST API (/rest/v1).

Credentials and endpoint come from the environment (or configs/.env):
  SAUCE_USERNAME, SAUCE_ACCESS_KEY, SAUCE_BASE_URL

Examples:
  saucerest job info 5f9fef27854ca50a3c132ce331cb6034
  saucerest job pass 5f9fef27854ca50a3c132ce331cb6034
  saucerest storage upload ./app.apk --overwrite
  saucerest job video 5f9fef27854ca50a3c132ce331cb6034 --out ./artifacts`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)

	root.AddCommand(
		jobCommand(s),
		tunnelCommand(s),
		storageCommand(s),
		accountCommand(s),
		platformsCommand(s),
		ciCommand(s),
		resultsCommand(s),
	)
	return root
}

// runRaw wraps a call returning a JSON document into a cobra RunE.
func runRaw(s *session, call func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := s.open(cmd)
		if err != nil {
			return err
		}
		defer s.closeInto(&err)

		raw, err := call(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		return printJSON(s.out, raw)
	}
}

// printJSON pretty-prints raw. Bodies that are not JSON are written as-is.
func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// printValue encodes v as indented JSON.
func printValue(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
