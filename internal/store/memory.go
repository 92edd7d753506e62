package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"imobi-crm/internal/models"

	"github.com/samber/lo"
)

// Memory is an in-process Store. Collections keep insertion order.
type Memory struct {
	mu sync.RWMutex

	templates     map[string]models.Template
	templateOrder []string

	rules   map[string]models.AutomationRule
	ruleSeq int64

	history map[string][]models.ChatMessage
	msgSeq  uint

	leads     map[string]models.Lead
	leadOrder []string

	empreendimentos map[string]models.Empreendimento

	logs   []models.AutomationLog
	logSeq uint

	now func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		templates:       make(map[string]models.Template),
		rules:           make(map[string]models.AutomationRule),
		history:         make(map[string][]models.ChatMessage),
		leads:           make(map[string]models.Lead),
		empreendimentos: make(map[string]models.Empreendimento),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// --- Templates ---

func (m *Memory) SaveTemplate(_ context.Context, t models.Template) (models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.templates[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else {
		t.CreatedAt = now
		m.templateOrder = append(m.templateOrder, t.ID)
	}
	t.UpdatedAt = now
	m.templates[t.ID] = t
	return t, nil
}

func (m *Memory) GetTemplateByID(_ context.Context, id string) (models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.templates[id]
	if !ok {
		return models.Template{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTemplates(_ context.Context) ([]models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Map(m.templateOrder, func(id string, _ int) models.Template {
		return m.templates[id]
	}), nil
}

func (m *Memory) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	delete(m.templates, id)
	m.templateOrder = lo.Without(m.templateOrder, id)
	return nil
}

// --- Automation rules ---

func (m *Memory) SaveRule(_ context.Context, r models.AutomationRule) (models.AutomationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.rules[r.ID]; ok {
		r.Seq = existing.Seq
		r.CreatedAt = existing.CreatedAt
	} else {
		m.ruleSeq++
		r.Seq = m.ruleSeq
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.rules[r.ID] = r
	return r, nil
}

func (m *Memory) GetRule(_ context.Context, id string) (models.AutomationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rules[id]
	if !ok {
		return models.AutomationRule{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRules(_ context.Context) ([]models.AutomationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.orderedRules(), nil
}

func (m *Memory) RulesForStage(_ context.Context, stage string) ([]models.AutomationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Filter(m.orderedRules(), func(r models.AutomationRule, _ int) bool {
		return r.Stage == stage
	}), nil
}

func (m *Memory) orderedRules() []models.AutomationRule {
	rules := lo.Values(m.rules)
	slices.SortFunc(rules, func(a, b models.AutomationRule) int {
		return int(a.Seq - b.Seq)
	})
	return rules
}

func (m *Memory) SetRuleEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[id]
	if !ok {
		return ErrNotFound
	}
	r.Enabled = enabled
	r.UpdatedAt = m.now()
	m.rules[id] = r
	return nil
}

func (m *Memory) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// --- Conversation log ---

func (m *Memory) Append(_ context.Context, leadID string, msg models.ChatMessage) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msgSeq++
	msg.ID = m.msgSeq
	msg.LeadID = leadID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	m.history[leadID] = append(m.history[leadID], msg)
	return msg, nil
}

func (m *Memory) History(_ context.Context, leadID string) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.history[leadID]), nil
}

// --- Leads ---

func (m *Memory) SaveLead(_ context.Context, l models.Lead) (models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.leads[l.ID]; ok {
		l.CreatedAt = existing.CreatedAt
	} else {
		l.CreatedAt = now
		m.leadOrder = append(m.leadOrder, l.ID)
	}
	l.UpdatedAt = now
	m.leads[l.ID] = l
	return l, nil
}

func (m *Memory) GetLead(_ context.Context, id string) (models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leads[id]
	if !ok {
		return models.Lead{}, ErrNotFound
	}
	return l, nil
}

// ListLeads returns the most recently created leads first.
func (m *Memory) ListLeads(_ context.Context) ([]models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	leads := lo.Map(m.leadOrder, func(id string, _ int) models.Lead {
		return m.leads[id]
	})
	slices.Reverse(leads)
	return leads, nil
}

func (m *Memory) UpdateStage(_ context.Context, id, stage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Stage = stage
	l.UpdatedAt = m.now()
	m.leads[id] = l
	return nil
}

func (m *Memory) DeleteLead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	m.leadOrder = lo.Without(m.leadOrder, id)
	return nil
}

// --- Empreendimentos ---

func (m *Memory) SaveEmpreendimento(_ context.Context, e models.Empreendimento) (models.Empreendimento, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.empreendimentos[e.ID]; ok {
		e.CreatedAt = existing.CreatedAt
	} else {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	m.empreendimentos[e.ID] = e
	return e, nil
}

func (m *Memory) FindEmpreendimentoByName(_ context.Context, name string) (models.Empreendimento, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := lo.Find(lo.Values(m.empreendimentos), func(e models.Empreendimento) bool {
		return strings.EqualFold(e.Name, name)
	})
	if !ok {
		return models.Empreendimento{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) ListEmpreendimentos(_ context.Context) ([]models.Empreendimento, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := lo.Values(m.empreendimentos)
	slices.SortFunc(list, func(a, b models.Empreendimento) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list, nil
}

// --- Automation logs ---

func (m *Memory) RecordAutomation(_ context.Context, entry models.AutomationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logSeq++
	entry.ID = m.logSeq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.logs = append(m.logs, entry)
	return nil
}

func (m *Memory) ListAutomationLogs(_ context.Context, limit int) ([]models.AutomationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := slices.Clone(m.logs)
	slices.Reverse(logs)
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (m *Memory) AutomationStats(_ context.Context) (models.AutomationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.AutomationStats{
		TotalRules:      int64(len(m.rules)),
		ActiveRules:     int64(lo.CountBy(lo.Values(m.rules), func(r models.AutomationRule) bool { return r.Enabled })),
		TotalExecutions: int64(len(m.logs)),
	}
	for _, entry := range m.logs {
		switch entry.Status {
		case models.AutomationSent:
			stats.Sent++
		case models.AutomationSkipped:
			stats.Skipped++
		case models.AutomationFailed:
			stats.Failed++
		}
	}
	return stats, nil
}
