// Package store holds the persistence capabilities the CRM core depends on.
//
// Every collection is an interface so handlers and services receive their
// storage explicitly. Memory backs tests and the "memory" driver, Gorm backs
// sqlite and postgres.
package store

import (
	"context"
	"errors"

	"imobi-crm/internal/models"
)

// ErrNotFound is returned when a keyed lookup has no match.
var ErrNotFound = errors.New("not found")

type TemplateStore interface {
	// SaveTemplate inserts or overwrites the template with the same id.
	SaveTemplate(ctx context.Context, t models.Template) (models.Template, error)
	GetTemplateByID(ctx context.Context, id string) (models.Template, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

type RuleStore interface {
	// SaveRule inserts or overwrites by id. An overwritten rule keeps its
	// original position in the iteration order.
	SaveRule(ctx context.Context, r models.AutomationRule) (models.AutomationRule, error)
	GetRule(ctx context.Context, id string) (models.AutomationRule, error)
	// ListRules and RulesForStage return rules in insertion order.
	ListRules(ctx context.Context) ([]models.AutomationRule, error)
	RulesForStage(ctx context.Context, stage string) ([]models.AutomationRule, error)
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error
	DeleteRule(ctx context.Context, id string) error
}

// ConversationLog is an append-only, per-lead message list. History returns
// messages in append order regardless of their timestamps.
type ConversationLog interface {
	Append(ctx context.Context, leadID string, msg models.ChatMessage) (models.ChatMessage, error)
	History(ctx context.Context, leadID string) ([]models.ChatMessage, error)
}

type LeadStore interface {
	SaveLead(ctx context.Context, l models.Lead) (models.Lead, error)
	GetLead(ctx context.Context, id string) (models.Lead, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
	UpdateStage(ctx context.Context, id, stage string) error
	DeleteLead(ctx context.Context, id string) error
}

type EmpreendimentoStore interface {
	SaveEmpreendimento(ctx context.Context, e models.Empreendimento) (models.Empreendimento, error)
	// FindEmpreendimentoByName matches names case-insensitively.
	FindEmpreendimentoByName(ctx context.Context, name string) (models.Empreendimento, error)
	ListEmpreendimentos(ctx context.Context) ([]models.Empreendimento, error)
}

type AutomationLogStore interface {
	RecordAutomation(ctx context.Context, entry models.AutomationLog) error
	// ListAutomationLogs returns the newest entries first.
	ListAutomationLogs(ctx context.Context, limit int) ([]models.AutomationLog, error)
	AutomationStats(ctx context.Context) (models.AutomationStats, error)
}

// Store is the full set of capabilities, satisfied by Memory and Gorm.
type Store interface {
	TemplateStore
	RuleStore
	ConversationLog
	LeadStore
	EmpreendimentoStore
	AutomationLogStore
}
