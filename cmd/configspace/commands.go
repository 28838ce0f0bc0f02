package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/infrastructure/middleware"
	"github.com/ahrav/go-configspace/internal/application"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

// studySummary is the printed form of a validated declaration.
type studySummary struct {
	File             string `yaml:"file"`
	Name             string `yaml:"name"`
	Version          string `yaml:"version"`
	Hyperparameters  int    `yaml:"hyperparameters"`
	Conditions       int    `yaml:"conditions"`
	ForbiddenClauses int    `yaml:"forbidden_clauses"`
	Objectives       int    `yaml:"objectives"`
	Tuner            string `yaml:"tuner"`
}

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate study declarations and summarize them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runValidate,
	}
}

func (a *app) runValidate(cmd *cobra.Command, args []string) error {
	studies, err := a.loader.LoadFiles(cmd.Context(), args...)
	if err != nil {
		return err
	}

	summaries := make([]studySummary, len(studies))
	for i, study := range studies {
		cs := study.ConfigurationSpace
		conditions := 0
		for _, c := range cs.Conditions() {
			if c != nil {
				conditions++
			}
		}
		summaries[i] = studySummary{
			File:             args[i],
			Name:             cs.Name(),
			Version:          study.Config.Version,
			Hyperparameters:  cs.NumHyperparameters(),
			Conditions:       conditions,
			ForbiddenClauses: cs.NumForbiddenClauses(),
			Objectives:       study.ObjectiveSpace.NumObjectives(),
			Tuner:            fmt.Sprintf("%s/%s", study.Tuner.Type(), study.Tuner.Name()),
		}
		if err := study.Tuner.Close(); err != nil {
			return fmt.Errorf("close tuner: %w", err)
		}
	}
	return writeYAML(a.out, summaries)
}

func (a *app) defaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default FILE",
		Short: "Print the default configuration of a study",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runDefault,
	}
}

func (a *app) runDefault(cmd *cobra.Command, args []string) error {
	study, err := a.load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer study.Tuner.Close()

	node, err := configurationNode(study.ConfigurationSpace.DefaultConfiguration())
	if err != nil {
		return err
	}
	return writeYAML(a.out, node)
}

func (a *app) sampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample FILE",
		Short: "Draw configurations from a study's distributions",
		Long: `sample draws configurations from the declared distributions. By default
sampling is structural: conditions and forbidden clauses are ignored. With
--valid every printed configuration passes the semantic check.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runSample,
	}
	cmd.Flags().IntP("count", "n", 1, "number of configurations to draw")
	cmd.Flags().Bool("valid", false, "only print semantically valid configurations")
	cmd.Flags().Int("attempts", 1000, "draws allowed per valid configuration")
	return cmd
}

func (a *app) runSample(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("count")
	valid, _ := cmd.Flags().GetBool("valid")
	attempts, _ := cmd.Flags().GetInt("attempts")
	if n < 0 {
		return fmt.Errorf("count %d: %w", n, domain.ErrInvalidValue)
	}

	study, err := a.load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer study.Tuner.Close()
	cs := study.ConfigurationSpace

	var configs []*space.Configuration
	if valid {
		for range n {
			c, err := cs.SampleValid(attempts)
			if err != nil {
				return err
			}
			configs = append(configs, c)
		}
	} else {
		if configs, err = cs.Samples(n); err != nil {
			return err
		}
	}

	nodes := make([]*yaml.Node, len(configs))
	for i, c := range configs {
		if nodes[i], err = configurationNode(c); err != nil {
			return err
		}
	}
	return writeYAML(a.out, nodes)
}

// tuneReport is the printed outcome of a tuning run.
type tuneReport struct {
	Tuner       string          `yaml:"tuner"`
	Asked       int             `yaml:"asked"`
	Told        int             `yaml:"told"`
	Stopped     string          `yaml:"stopped,omitempty"`
	Optimums    []evaluationDoc `yaml:"optimums"`
	HistorySize int             `yaml:"history_size"`
}

func (a *app) tuneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tune FILE",
		Aliases: []string{"tune-random"},
		Short:   "Run the declared tuner against a synthetic objective",
		Long: `tune drives the study's tuner through ask/evaluate/tell rounds. Each
configuration is measured by a synthetic objective: the fractional part of
the sum of its active numeric values, scaled into the bounds of every
measured hyperparameter. The declared budget and rate limit apply.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runTune,
	}
	cmd.Flags().Int("iterations", 20, "number of configurations to evaluate")
	cmd.Flags().Int("batch", 1, "configurations asked per round")
	return cmd
}

func (a *app) runTune(cmd *cobra.Command, args []string) error {
	iterations, _ := cmd.Flags().GetInt("iterations")
	batch, _ := cmd.Flags().GetInt("batch")
	if iterations < 0 || batch < 1 {
		return fmt.Errorf("iterations %d, batch %d: %w", iterations, batch, domain.ErrInvalidValue)
	}

	ctx := cmd.Context()
	study, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	// A batch above the burst could never be reserved and would retry forever.
	if _, burst, ok := middleware.RateLimitFromConfig(study.Config.Tuner.RateLimit); ok && batch > burst {
		_ = study.Tuner.Close()
		return fmt.Errorf("batch %d exceeds rate limit burst %d: %w", batch, burst, domain.ErrInvalidValue)
	}
	tuner, err := a.decorate(study)
	if err != nil {
		_ = study.Tuner.Close()
		return err
	}
	defer tuner.Close()

	report := tuneReport{Tuner: fmt.Sprintf("%s/%s", tuner.Type(), tuner.Name())}
	for report.Asked < iterations {
		configs, err := tuner.Ask(ctx, min(batch, iterations-report.Asked))
		if err != nil {
			if wait, ok := retryAfter(err); ok {
				a.log.Debug("rate limited", zap.Duration("retry_after", wait))
				if err := sleep(ctx, wait); err != nil {
					return err
				}
				continue
			}
			if errors.Is(err, ports.ErrBudgetExceeded) {
				report.Stopped = err.Error()
				break
			}
			return err
		}
		report.Asked += len(configs)

		evals := make([]*space.Evaluation, len(configs))
		for i, c := range configs {
			if evals[i], err = measure(study.ObjectiveSpace, c); err != nil {
				return err
			}
		}
		if err := tuner.Tell(ctx, evals); err != nil {
			if errors.Is(err, ports.ErrBudgetExceeded) {
				report.Stopped = err.Error()
				break
			}
			return err
		}
		report.Told += len(evals)
	}

	optimums, err := tuner.Optimums()
	if err != nil {
		return err
	}
	for _, e := range optimums {
		doc, err := newEvaluationDoc(e)
		if err != nil {
			return err
		}
		report.Optimums = append(report.Optimums, doc)
	}
	if report.HistorySize, err = tuner.NumHistory(); err != nil {
		return err
	}
	a.log.Info("tuning finished",
		zap.String("study", study.Config.Name),
		zap.Int("asked", report.Asked),
		zap.Int("optimums", len(report.Optimums)))
	return writeYAML(a.out, report)
}

// decorate wraps the study's tuner with the declared rate limit and
// budget, then with tracing over the whole stack.
func (a *app) decorate(study *application.Study) (ports.Tuner, error) {
	metrics := middleware.NewPrometheusMetrics(prometheus.NewRegistry())

	var tuner ports.Tuner = study.Tuner
	if limit, burst, ok := middleware.RateLimitFromConfig(study.Config.Tuner.RateLimit); ok {
		tuner = middleware.NewRateLimitedTuner(tuner, limit, burst, metrics)
	}
	if study.Config.Tuner.Budget != nil {
		budgeted := middleware.NewBudgetedTuner(middleware.BudgetFromConfig(study.Config.Tuner.Budget), tuner, metrics)
		if err := budgeted.Validate(); err != nil {
			return nil, err
		}
		tuner = budgeted
	}
	return middleware.NewTracingTuner(tuner,
		middleware.WithTracerProvider(a.tp),
		middleware.WithMetrics(metrics),
	), nil
}

func (a *app) load(ctx context.Context, path string) (*application.Study, error) {
	return a.loader.LoadFromFile(ctx, path)
}

// measure evaluates c with the synthetic objective. A measurement outside
// a measured hyperparameter's domain is recorded as a failed evaluation.
func measure(objectives *space.ObjectiveSpace, c *space.Configuration) (*space.Evaluation, error) {
	values, err := c.Space().ActiveValues(c.Values())
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, v := range values {
		if f, ok := v.AsFloat(); ok {
			sum += f
		}
	}
	frac := sum - math.Floor(sum)

	e, err := space.NewEvaluation(objectives, c, domain.Success, nil)
	if err != nil {
		return nil, err
	}
	for i, h := range objectives.Hyperparameters() {
		if err := e.SetValue(i, measurement(h, frac)); err != nil {
			e.SetError(domain.CodeOf(err))
			break
		}
	}
	return e, nil
}

// measurement maps frac in [0, 1) into the bounds of a numerical
// hyperparameter. Other hyperparameters measure their default.
func measurement(h hyperparameter.Hyperparameter, frac float64) domain.Value {
	n, ok := h.(*hyperparameter.Numerical)
	if !ok {
		return h.DefaultValue()
	}
	t, lower, upper, _ := n.Parameters()
	lo, hi := lower.Float(t), upper.Float(t)
	return domain.NumericFromFloat(t, lo+frac*(hi-lo)).Value(t)
}

// retryAfter extracts the wait a rate limited tuner asked for.
func retryAfter(err error) (time.Duration, bool) {
	var tErr *ports.TunerError
	if errors.As(err, &tErr) && tErr.RetryAfter != nil && errors.Is(err, ports.ErrRateLimited) {
		return *tErr.RetryAfter, true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
