package automation

import (
	"fmt"

	"imobi-crm/internal/models"

	"github.com/samber/lo"
)

// FailurePolicy decides what happens to the remaining rules after a send fails.
type FailurePolicy int

const (
	// Continue records the failure and goes on with the next rule.
	Continue FailurePolicy = iota
	// Abort stops at the first failed send.
	Abort
)

func (p FailurePolicy) String() string {
	switch p {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParsePolicy maps "continue" and "abort" to a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "continue":
		return Continue, nil
	case "abort":
		return Abort, nil
	default:
		return Continue, fmt.Errorf("unknown automation failure policy %q", s)
	}
}

// Outcome is what happened to one matching rule.
type Outcome struct {
	RuleID     string `json:"rule_id"`
	TemplateID string `json:"template_id"`
	Status     string `json:"status"` // models.AutomationSent, Skipped or Failed
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// Result lists the outcomes of one trigger, in rule order.
type Result struct {
	Stage    string    `json:"stage"`
	LeadID   string    `json:"lead_id"`
	Outcomes []Outcome `json:"outcomes"`
}

func (r Result) count(status string) int {
	return lo.CountBy(r.Outcomes, func(o Outcome) bool { return o.Status == status })
}

func (r Result) Sent() int    { return r.count(models.AutomationSent) }
func (r Result) Skipped() int { return r.count(models.AutomationSkipped) }
func (r Result) Failed() int  { return r.count(models.AutomationFailed) }
