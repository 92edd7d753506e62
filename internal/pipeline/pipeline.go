package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imobi-crm/internal/automation"
	"imobi-crm/internal/store"

	"go.uber.org/zap"
)

var ErrEmptyStage = errors.New("stage is required")

// Trigger runs the automations bound to a stage for a lead.
type Trigger interface {
	TriggerStageAutomations(ctx context.Context, stage, leadID string) (automation.Result, error)
}

// Service moves leads between kanban stages.
type Service struct {
	Leads   store.LeadStore
	Trigger Trigger
	Logger  *zap.Logger
}

func NewService(leads store.LeadStore, trigger Trigger, logger *zap.Logger) *Service {
	return &Service{Leads: leads, Trigger: trigger, Logger: logger}
}

// MoveLead sets the lead's stage and, when it changed, fires the automations
// of the new stage. Moving to the current stage does nothing. A started move
// runs its automations to completion even if the caller goes away.
func (s *Service) MoveLead(ctx context.Context, leadID, stage string) (automation.Result, bool, error) {
	ctx = context.WithoutCancel(ctx)
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return automation.Result{}, false, ErrEmptyStage
	}

	lead, err := s.Leads.GetLead(ctx, leadID)
	if err != nil {
		return automation.Result{}, false, err
	}
	if lead.Stage == stage {
		return automation.Result{Stage: stage, LeadID: leadID, Outcomes: []automation.Outcome{}}, false, nil
	}

	if err := s.Leads.UpdateStage(ctx, leadID, stage); err != nil {
		return automation.Result{}, false, fmt.Errorf("update stage of %s: %w", leadID, err)
	}
	s.Logger.Info("Lead moved",
		zap.String("lead_id", leadID),
		zap.String("from", lead.Stage),
		zap.String("to", stage))

	result, err := s.Trigger.TriggerStageAutomations(ctx, stage, leadID)
	return result, true, err
}
