package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"imobi-crm/internal/chat"
	"imobi-crm/internal/config"
	"imobi-crm/internal/models"
	"imobi-crm/internal/store"
	"imobi-crm/internal/whatsapp"
	wa "imobi-crm/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	logger := zap.NewNop()
	outbox := chat.NewOutbox(whatsapp.NewLogMessenger(logger), mem, mem, "agent", logger)
	svc := chat.NewService(chat.NewResolver(mem, nil), outbox, mem, logger)
	h := NewHandler(&config.Config{VerifyToken: "tok"}, svc, mem, logger)

	r := gin.New()
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.HandleMessage)
	return r, mem
}

func TestHandler_VerifyWebhook(t *testing.T) {
	r, _ := newRouter(t)

	cases := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{"should echo the challenge for a valid token", "hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", http.StatusOK, "42"},
		{"should reject a wrong token", "hub.mode=subscribe&hub.verify_token=bad&hub.challenge=42", http.StatusForbidden, ""},
		{"should reject missing parameters", "", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?"+tc.query, nil))
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.body, w.Body.String())
		})
	}
}

const inboundText = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "contacts": [{"wa_id": "5511988887777", "profile": {"name": "Ana"}}],
        "messages": [{
          "from": "5511988887777",
          "id": "wamid.1",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "Tenho interesse"}
        }]
      }
    }]
  }]
}`

func TestHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should create the lead and append the message", func(t *testing.T) {
		req := require.New(t)
		r, mem := newRouter(t)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundText)))
		req.Equal(http.StatusOK, w.Code)

		lead, err := mem.GetLead(ctx, "5511988887777")
		req.NoError(err)
		req.Equal("Ana", lead.Name)
		req.Equal("5511988887777", lead.Phone)
		req.Equal(DefaultStage, lead.Stage)

		history, err := mem.History(ctx, "5511988887777")
		req.NoError(err)
		req.Len(history, 1)
		req.Equal("Tenho interesse", history[0].Text)
		req.Equal(models.DirectionInbound, history[0].Direction)
		req.Equal(int64(1700000000), history[0].Timestamp.Unix())
	})

	t.Run("should keep an existing lead's stage", func(t *testing.T) {
		req := require.New(t)
		r, mem := newRouter(t)
		_, err := mem.SaveLead(ctx, models.Lead{ID: "5511988887777", Name: "Ana Souza", Phone: "5511988887777", Stage: "visita"})
		req.NoError(err)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundText)))
		req.Equal(http.StatusOK, w.Code)

		lead, err := mem.GetLead(ctx, "5511988887777")
		req.NoError(err)
		req.Equal("visita", lead.Stage)
		req.Equal("Ana Souza", lead.Name)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		r, _ := newRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContent(t *testing.T) {
	cases := []struct {
		name string
		msg  wa.IncomingMessage
		want string
	}{
		{"image with caption", wa.IncomingMessage{Type: "image", Image: &wa.MediaMessage{ID: "m1", Caption: "fachada"}}, "[image]:m1:fachada"},
		{"document with filename", wa.IncomingMessage{Type: "document", Document: &wa.MediaMessage{ID: "d1", Filename: "planta.pdf"}}, "[document]:d1:planta.pdf"},
		{"audio", wa.IncomingMessage{Type: "audio", Audio: &wa.MediaMessage{ID: "a1"}}, "[audio]:a1"},
		{"video without payload", wa.IncomingMessage{Type: "video"}, "[video]"},
		{"unknown type", wa.IncomingMessage{Type: "sticker"}, "[sticker]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Content(tc.msg))
		})
	}
}
