package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ahrav/go-configspace/internal/application"
	"github.com/ahrav/go-configspace/internal/logger"
)

// app holds the state shared by every subcommand. It is populated by the
// root command's persistent pre-run once flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	logEnv   string
	logLevel string
	trace    bool

	log      *zap.Logger
	tp       trace.TracerProvider
	shutdown func(context.Context) error
	loader   *application.StudyLoader
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "configspace",
		Short: "Inspect, sample and tune configuration spaces",
		Long: `configspace loads study declarations (hyperparameters, conditions,
forbidden clauses, objectives and a tuner) from YAML files and drives them:
validating declarations, printing default configurations, sampling and
running an ask/tell loop against a synthetic objective.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.logEnv, "log-env", "dev", "logger environment: dev, local or prod")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&a.trace, "trace", false, "write tuner spans to stderr")

	root.AddCommand(
		a.validateCommand(),
		a.defaultCommand(),
		a.sampleCommand(),
		a.tuneCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	log, err := logger.NewLogger(a.logEnv, a.logLevel)
	if err != nil {
		return err
	}
	a.log = log
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))

	if a.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(a.errOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		a.tp = tp
		a.shutdown = tp.Shutdown
	} else {
		a.tp = otel.GetTracerProvider()
	}

	loader, err := application.NewStudyLoader(nil)
	if err != nil {
		return fmt.Errorf("create study loader: %w", err)
	}
	a.loader = loader
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.shutdown != nil {
		if err := a.shutdown(cmd.Context()); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}
	}
	// Sync fails on terminals; nothing useful to do about it.
	_ = a.log.Sync()
	return nil
}
