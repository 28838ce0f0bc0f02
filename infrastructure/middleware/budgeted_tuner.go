package middleware

import (
	"context"
	"fmt"

	"github.com/ahrav/go-configspace/internal/application"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

var _ ports.Tuner = (*BudgetedTuner)(nil)

// Budget defines how much work a tuning study may consume.
type Budget struct {
	// MaxConfigurations limits the total number of configurations Ask and
	// Suggest may hand out. Zero means unlimited.
	MaxConfigurations int64

	// MaxEvaluations limits the total number of evaluations Tell may
	// accept. Zero means unlimited.
	MaxEvaluations int64
}

// BudgetedTuner enforces a Budget around another tuner. Requests that
// would cross a limit are rejected whole with a BudgetExceededError before
// reaching the wrapped tuner, so a study can never overshoot its budget.
// Like every tuner it is single writer.
type BudgetedTuner struct {
	ports.Tuner
	budget  Budget
	metrics ports.MetricsCollector

	asked int64
	told  int64
}

// NewBudgetedTuner wraps next with budget. metrics may be nil.
func NewBudgetedTuner(budget Budget, next ports.Tuner, metrics ports.MetricsCollector) *BudgetedTuner {
	if next == nil {
		panic("budgeted tuner: next tuner is required")
	}
	return &BudgetedTuner{Tuner: next, budget: budget, metrics: metrics}
}

// Validate checks that the budget limits are not negative.
func (bt *BudgetedTuner) Validate() error {
	if bt.budget.MaxConfigurations < 0 {
		return fmt.Errorf("budgeted tuner: max_configurations cannot be negative, got %d", bt.budget.MaxConfigurations)
	}
	if bt.budget.MaxEvaluations < 0 {
		return fmt.Errorf("budgeted tuner: max_evaluations cannot be negative, got %d", bt.budget.MaxEvaluations)
	}
	return nil
}

// Asked returns how many configurations have been handed out.
func (bt *BudgetedTuner) Asked() int64 { return bt.asked }

// Told returns how many evaluations have been accepted.
func (bt *BudgetedTuner) Told() int64 { return bt.told }

// Ask implements ports.Tuner. The budget is charged with the number of
// configurations actually returned.
func (bt *BudgetedTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	if err := bt.check("configurations", bt.budget.MaxConfigurations, bt.asked, int64(n)); err != nil {
		return nil, ports.NewTunerError(bt.ID(), "ask", err)
	}
	configs, err := bt.Tuner.Ask(ctx, n)
	if err != nil {
		return nil, err
	}
	bt.asked += int64(len(configs))
	bt.updateMetrics()
	return configs, nil
}

// Suggest implements ports.Tuner and charges one configuration.
func (bt *BudgetedTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	if err := bt.check("configurations", bt.budget.MaxConfigurations, bt.asked, 1); err != nil {
		return nil, ports.NewTunerError(bt.ID(), "suggest", err)
	}
	c, err := bt.Tuner.Suggest(ctx)
	if err != nil {
		return nil, err
	}
	bt.asked++
	bt.updateMetrics()
	return c, nil
}

// Tell implements ports.Tuner.
func (bt *BudgetedTuner) Tell(ctx context.Context, evals []*space.Evaluation) error {
	if err := bt.check("evaluations", bt.budget.MaxEvaluations, bt.told, int64(len(evals))); err != nil {
		return ports.NewTunerError(bt.ID(), "tell", err)
	}
	if err := bt.Tuner.Tell(ctx, evals); err != nil {
		return err
	}
	bt.told += int64(len(evals))
	bt.updateMetrics()
	return nil
}

// check returns a BudgetExceededError when requesting more would cross
// limit.
func (bt *BudgetedTuner) check(limitType string, limit, used, requested int64) error {
	if limit <= 0 || used+requested <= limit {
		return nil
	}
	if bt.metrics != nil {
		bt.metrics.RecordCounter("budget_exceeded_total", 1, map[string]string{
			"tuner":      bt.Name(),
			"limit_type": limitType,
		})
	}
	return &ports.BudgetExceededError{
		LimitType: limitType,
		Limit:     limit,
		Used:      used,
		Requested: requested,
		TunerName: bt.Name(),
	}
}

// updateMetrics reports the remaining budget as gauges.
func (bt *BudgetedTuner) updateMetrics() {
	if bt.metrics == nil {
		return
	}
	labels := map[string]string{"tuner": bt.Name()}
	if bt.budget.MaxConfigurations > 0 {
		bt.metrics.RecordGauge("budget_remaining_configurations", float64(bt.budget.MaxConfigurations-bt.asked), labels)
	}
	if bt.budget.MaxEvaluations > 0 {
		bt.metrics.RecordGauge("budget_remaining_evaluations", float64(bt.budget.MaxEvaluations-bt.told), labels)
	}
}

// BudgetFromConfig converts a declared budget to a Budget. A nil
// declaration means unlimited.
func BudgetFromConfig(config *application.BudgetConfig) Budget {
	if config == nil {
		return Budget{}
	}
	return Budget{
		MaxConfigurations: config.MaxConfigurations,
		MaxEvaluations:    config.MaxEvaluations,
	}
}
