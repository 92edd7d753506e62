package automation

import (
	"context"
	"errors"
	"fmt"

	"imobi-crm/internal/chat"
	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrDispatchFailed wraps the messenger error that aborted a trigger.
var ErrDispatchFailed = errors.New("automation dispatch failed")

type Engine struct {
	Rules     store.RuleStore
	Templates store.TemplateStore
	Messenger chat.Messenger
	Logs      store.AutomationLogStore // optional
	Policy    FailurePolicy
	Logger    *zap.Logger
}

func NewEngine(rules store.RuleStore, templates store.TemplateStore, messenger chat.Messenger, logs store.AutomationLogStore, policy FailurePolicy, logger *zap.Logger) *Engine {
	return &Engine{
		Rules:     rules,
		Templates: templates,
		Messenger: messenger,
		Logs:      logs,
		Policy:    policy,
		Logger:    logger,
	}
}

// TriggerStageAutomations sends the template of every enabled rule bound to
// stage, one rule at a time and in rule order. Rules whose template does not
// exist are skipped. Under Abort the first failed send ends the run and the
// partial Result comes back with an error wrapping ErrDispatchFailed.
func (e *Engine) TriggerStageAutomations(ctx context.Context, stage, leadID string) (Result, error) {
	result := Result{Stage: stage, LeadID: leadID, Outcomes: []Outcome{}}

	rules, err := e.Rules.RulesForStage(ctx, stage)
	if err != nil {
		return result, fmt.Errorf("load rules for stage %s: %w", stage, err)
	}
	rules = lo.Filter(rules, func(r models.AutomationRule, _ int) bool { return r.Enabled })

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := e.runRule(ctx, rule, leadID)
		if err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
		e.record(ctx, stage, leadID, outcome)

		if outcome.Status == models.AutomationFailed && e.Policy == Abort {
			return result, fmt.Errorf("%w: rule %s: %v", ErrDispatchFailed, rule.ID, outcome.Err)
		}
	}

	e.Logger.Info("Stage automations finished",
		zap.String("stage", stage),
		zap.String("lead_id", leadID),
		zap.Int("sent", result.Sent()),
		zap.Int("skipped", result.Skipped()),
		zap.Int("failed", result.Failed()))

	return result, nil
}

// runRule returns an error only for storage failures; send failures are
// reported in the Outcome.
func (e *Engine) runRule(ctx context.Context, rule models.AutomationRule, leadID string) (Outcome, error) {
	outcome := Outcome{RuleID: rule.ID, TemplateID: rule.TemplateID}

	tmpl, err := e.Templates.GetTemplateByID(ctx, rule.TemplateID)
	if errors.Is(err, store.ErrNotFound) {
		e.Logger.Debug("Rule references missing template, skipping",
			zap.String("rule_id", rule.ID),
			zap.String("template_id", rule.TemplateID))
		outcome.Status = models.AutomationSkipped
		return outcome, nil
	}
	if err != nil {
		return outcome, fmt.Errorf("load template %s for rule %s: %w", rule.TemplateID, rule.ID, err)
	}

	if err := e.Messenger.Send(ctx, leadID, tmpl.Content); err != nil {
		e.Logger.Warn("Automation send failed",
			zap.String("rule_id", rule.ID),
			zap.String("lead_id", leadID),
			zap.Error(err))
		outcome.Status = models.AutomationFailed
		outcome.Err = err
		outcome.Error = err.Error()
		return outcome, nil
	}

	outcome.Status = models.AutomationSent
	return outcome, nil
}

func (e *Engine) record(ctx context.Context, stage, leadID string, o Outcome) {
	if e.Logs == nil {
		return
	}
	err := e.Logs.RecordAutomation(ctx, models.AutomationLog{
		RuleID:       o.RuleID,
		LeadID:       leadID,
		Stage:        stage,
		TemplateID:   o.TemplateID,
		Status:       o.Status,
		ErrorMessage: o.Error,
	})
	if err != nil {
		e.Logger.Error("Failed to record automation log", zap.String("rule_id", o.RuleID), zap.Error(err))
	}
}
