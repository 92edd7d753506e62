package automation

import (
	"context"
	"errors"
	"testing"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMessenger struct {
	mock.Mock
	sent []string
}

func (m *mockMessenger) Send(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	if args.Error(0) == nil {
		m.sent = append(m.sent, text)
	}
	return args.Error(0)
}

func seed(t *testing.T, rules ...models.AutomationRule) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	for _, tmpl := range []models.Template{
		{ID: "welcome", Content: "Bem-vindo!"},
		{ID: "followup", Content: "Podemos agendar uma visita?"},
		{ID: "brochure", Content: "Segue o material."},
	} {
		_, err := mem.SaveTemplate(ctx, tmpl)
		require.NoError(t, err)
	}
	for _, r := range rules {
		r.Enabled = true
		_, err := mem.SaveRule(ctx, r)
		require.NoError(t, err)
	}
	return mem
}

func TestEngine_TriggerStageAutomations(t *testing.T) {
	ctx := context.Background()

	t.Run("should send once and skip the dangling template", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t,
			models.AutomationRule{ID: "r1", Stage: "novo", TemplateID: "welcome"},
			models.AutomationRule{ID: "r2", Stage: "novo", TemplateID: "missing"},
			models.AutomationRule{ID: "r3", Stage: "contato", TemplateID: "welcome"},
		)
		messenger := &mockMessenger{}
		messenger.On("Send", mock.Anything, "lead-1", "Bem-vindo!").Return(nil).Once()
		engine := NewEngine(mem, mem, messenger, mem, Continue, zap.NewNop())

		result, err := engine.TriggerStageAutomations(ctx, "novo", "lead-1")

		req.NoError(err)
		req.Equal(1, result.Sent())
		req.Equal(1, result.Skipped())
		req.Equal(0, result.Failed())
		req.Equal("r1", result.Outcomes[0].RuleID)
		req.Equal(models.AutomationSkipped, result.Outcomes[1].Status)
		messenger.AssertNumberOfCalls(t, "Send", 1)
		messenger.AssertExpectations(t)
	})

	t.Run("should send in rule order", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t,
			models.AutomationRule{ID: "z", Stage: "visita", TemplateID: "brochure"},
			models.AutomationRule{ID: "a", Stage: "visita", TemplateID: "welcome"},
			models.AutomationRule{ID: "m", Stage: "visita", TemplateID: "followup"},
		)
		messenger := &mockMessenger{}
		messenger.On("Send", mock.Anything, "lead-1", mock.Anything).Return(nil)
		engine := NewEngine(mem, mem, messenger, mem, Continue, zap.NewNop())

		_, err := engine.TriggerStageAutomations(ctx, "visita", "lead-1")

		req.NoError(err)
		req.Equal([]string{"Segue o material.", "Bem-vindo!", "Podemos agendar uma visita?"}, messenger.sent)
	})

	t.Run("should continue past a failed send by default", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t,
			models.AutomationRule{ID: "r1", Stage: "novo", TemplateID: "welcome"},
			models.AutomationRule{ID: "r2", Stage: "novo", TemplateID: "followup"},
		)
		messenger := &mockMessenger{}
		messenger.On("Send", mock.Anything, "lead-1", "Bem-vindo!").Return(errors.New("503")).Once()
		messenger.On("Send", mock.Anything, "lead-1", "Podemos agendar uma visita?").Return(nil).Once()
		engine := NewEngine(mem, mem, messenger, mem, Continue, zap.NewNop())

		result, err := engine.TriggerStageAutomations(ctx, "novo", "lead-1")

		req.NoError(err)
		req.Equal(1, result.Failed())
		req.Equal(1, result.Sent())
		req.Equal("503", result.Outcomes[0].Error)

		logs, err := mem.ListAutomationLogs(ctx, 0)
		req.NoError(err)
		req.Len(logs, 2)
		req.Equal(models.AutomationSent, logs[0].Status)
		req.Equal(models.AutomationFailed, logs[1].Status)
		req.Equal("503", logs[1].ErrorMessage)
	})

	t.Run("should stop at the first failure under abort", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t,
			models.AutomationRule{ID: "r1", Stage: "novo", TemplateID: "welcome"},
			models.AutomationRule{ID: "r2", Stage: "novo", TemplateID: "followup"},
		)
		messenger := &mockMessenger{}
		messenger.On("Send", mock.Anything, "lead-1", "Bem-vindo!").Return(errors.New("503")).Once()
		engine := NewEngine(mem, mem, messenger, mem, Abort, zap.NewNop())

		result, err := engine.TriggerStageAutomations(ctx, "novo", "lead-1")

		req.ErrorIs(err, ErrDispatchFailed)
		req.Len(result.Outcomes, 1)
		req.Equal(1, result.Failed())
		messenger.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("should ignore disabled rules", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t, models.AutomationRule{ID: "r1", Stage: "novo", TemplateID: "welcome"})
		req.NoError(mem.SetRuleEnabled(ctx, "r1", false))
		messenger := &mockMessenger{}
		engine := NewEngine(mem, mem, messenger, nil, Continue, zap.NewNop())

		result, err := engine.TriggerStageAutomations(ctx, "novo", "lead-1")

		req.NoError(err)
		req.Empty(result.Outcomes)
		messenger.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should do nothing for a stage without rules", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t)
		messenger := &mockMessenger{}
		engine := NewEngine(mem, mem, messenger, mem, Continue, zap.NewNop())

		result, err := engine.TriggerStageAutomations(ctx, "fechado", "lead-1")

		req.NoError(err)
		req.Empty(result.Outcomes)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		req := require.New(t)
		mem := seed(t, models.AutomationRule{ID: "r1", Stage: "novo", TemplateID: "welcome"})
		messenger := &mockMessenger{}
		engine := NewEngine(mem, mem, messenger, mem, Continue, zap.NewNop())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := engine.TriggerStageAutomations(cancelled, "novo", "lead-1")

		req.ErrorIs(err, context.Canceled)
		messenger.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestParsePolicy(t *testing.T) {
	req := require.New(t)

	p, err := ParsePolicy("abort")
	req.NoError(err)
	req.Equal(Abort, p)
	req.Equal("abort", p.String())

	p, err = ParsePolicy("")
	req.NoError(err)
	req.Equal(Continue, p)

	_, err = ParsePolicy("retry")
	req.Error(err)
}
