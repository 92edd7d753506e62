package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) Send(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	return args.Error(0)
}

type stubSummarizer struct {
	calls []string
	err   error
}

func (s *stubSummarizer) Summarize(_ context.Context, name string) (string, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return "", s.err
	}
	return "Resumo de " + name, nil
}

type recordingNotifier struct {
	messages []models.ChatMessage
}

func (n *recordingNotifier) NotifyMessage(msg models.ChatMessage) {
	n.messages = append(n.messages, msg)
}

// failingTemplates reports a storage error for every lookup.
type failingTemplates struct {
	store.TemplateStore
}

func (failingTemplates) GetTemplateByID(context.Context, string) (models.Template, error) {
	return models.Template{}, errors.New("disk on fire")
}

func newTestService(t *testing.T, messenger Messenger) (*Service, *store.Memory, *stubSummarizer, *recordingNotifier) {
	t.Helper()
	mem := store.NewMemory()
	summaries := &stubSummarizer{}
	notifier := &recordingNotifier{}

	outbox := NewOutbox(messenger, mem, mem, "agent", zap.NewNop())
	outbox.Notifier = notifier
	svc := NewService(NewResolver(mem, summaries), outbox, mem, zap.NewNop())
	return svc, mem, summaries, notifier
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_, err := mem.SaveTemplate(ctx, models.Template{ID: "welcome", Content: "Olá {nome}, bem-vindo!"})
	require.NoError(t, err)
	summaries := &stubSummarizer{}
	resolver := NewResolver(mem, summaries)

	t.Run("should send template content verbatim", func(t *testing.T) {
		req := require.New(t)
		text, err := resolver.Resolve(ctx, Parse("/template welcome"), "/template welcome")
		req.NoError(err)
		req.Equal("Olá {nome}, bem-vindo!", text)
	})

	t.Run("should fall back to typed text for unknown template", func(t *testing.T) {
		req := require.New(t)
		text, err := resolver.Resolve(ctx, Parse("/template welcom"), "/template welcom")
		req.NoError(err)
		req.Equal("/template welcom", text)
	})

	t.Run("should summarize empreendimento", func(t *testing.T) {
		req := require.New(t)
		text, err := resolver.Resolve(ctx, Parse(`/"Residencial Sol"`), `/"Residencial Sol"`)
		req.NoError(err)
		req.Equal("Resumo de Residencial Sol", text)
		req.Equal([]string{"Residencial Sol"}, summaries.calls)
	})

	t.Run("should pass manager and plain input through", func(t *testing.T) {
		req := require.New(t)
		text, err := resolver.Resolve(ctx, Parse("/@chame o gerente"), "/@chame o gerente")
		req.NoError(err)
		req.Equal("/@chame o gerente", text)

		text, err = resolver.Resolve(ctx, Parse("bom dia"), "bom dia")
		req.NoError(err)
		req.Equal("bom dia", text)
	})

	t.Run("should surface storage errors", func(t *testing.T) {
		req := require.New(t)
		broken := NewResolver(failingTemplates{}, summaries)
		_, err := broken.Resolve(ctx, Parse("/template welcome"), "/template welcome")
		req.Error(err)
	})

	t.Run("should surface summary errors", func(t *testing.T) {
		req := require.New(t)
		broken := NewResolver(mem, &stubSummarizer{err: errors.New("offline")})
		_, err := broken.Resolve(ctx, Parse(`/"X"`), `/"X"`)
		req.Error(err)
	})
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve template, send to lead phone and log it", func(t *testing.T) {
		req := require.New(t)
		messenger := &mockMessenger{}
		svc, mem, _, notifier := newTestService(t, messenger)
		_, err := mem.SaveLead(ctx, models.Lead{ID: "lead-1", Name: "Ana", Phone: "5511988887777"})
		req.NoError(err)
		_, err = mem.SaveTemplate(ctx, models.Template{ID: "welcome", Content: "Bem-vindo!"})
		req.NoError(err)

		messenger.On("Send", mock.Anything, "5511988887777", "Bem-vindo!").Return(nil).Once()

		msg, cmd, err := svc.Send(ctx, "lead-1", "/template welcome")

		req.NoError(err)
		req.Equal(KindTemplate, cmd.Kind)
		req.Equal("Bem-vindo!", msg.Text)
		req.Equal("agent", msg.From)
		req.Equal("5511988887777", msg.To)
		req.Equal(models.DirectionOutbound, msg.Direction)
		req.False(msg.Timestamp.IsZero())

		history, err := svc.History(ctx, "lead-1")
		req.NoError(err)
		req.Len(history, 1)
		req.Len(notifier.messages, 1)
		messenger.AssertExpectations(t)
	})

	t.Run("should address unknown leads by their id", func(t *testing.T) {
		req := require.New(t)
		messenger := &mockMessenger{}
		svc, _, _, _ := newTestService(t, messenger)

		messenger.On("Send", mock.Anything, "5511000000000", "oi").Return(nil).Once()

		msg, _, err := svc.Send(ctx, "5511000000000", "oi")

		req.NoError(err)
		req.Equal("5511000000000", msg.LeadID)
		messenger.AssertExpectations(t)
	})

	t.Run("should not log a message whose send failed", func(t *testing.T) {
		req := require.New(t)
		messenger := &mockMessenger{}
		svc, _, _, notifier := newTestService(t, messenger)

		messenger.On("Send", mock.Anything, "lead-9", "oi").Return(errors.New("timeout")).Once()

		_, _, err := svc.Send(ctx, "lead-9", "oi")

		req.Error(err)
		history, err := svc.History(ctx, "lead-9")
		req.NoError(err)
		req.Empty(history)
		req.Empty(notifier.messages)
	})

	t.Run("should reject blank input without sending", func(t *testing.T) {
		req := require.New(t)
		messenger := &mockMessenger{}
		svc, _, _, _ := newTestService(t, messenger)

		_, _, err := svc.Send(ctx, "lead-1", "   ")

		req.ErrorIs(err, ErrEmptyMessage)
		messenger.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Receive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messenger := &mockMessenger{}
	svc, _, _, notifier := newTestService(t, messenger)

	in, err := svc.Receive(ctx, "lead-1", "5511988887777", "Tenho interesse", time.Time{})
	req.NoError(err)
	req.Equal(models.DirectionInbound, in.Direction)
	req.Equal("agent", in.To)

	messenger.On("Send", mock.Anything, "lead-1", "Obrigado!").Return(nil).Once()
	_, _, err = svc.Send(ctx, "lead-1", "Obrigado!")
	req.NoError(err)

	history, err := svc.History(ctx, "lead-1")
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("Tenho interesse", history[0].Text)
	req.Equal("Obrigado!", history[1].Text)
	req.Len(notifier.messages, 2)
}
