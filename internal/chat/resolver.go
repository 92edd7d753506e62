package chat

import (
	"context"
	"errors"
	"fmt"

	"imobi-crm/internal/store"
)

// Summarizer renders a human-readable description of an empreendimento.
type Summarizer interface {
	Summarize(ctx context.Context, name string) (string, error)
}

// Resolver turns a parsed command into the outbound message text.
type Resolver struct {
	Templates store.TemplateStore
	Summaries Summarizer
}

func NewResolver(templates store.TemplateStore, summaries Summarizer) *Resolver {
	return &Resolver{Templates: templates, Summaries: summaries}
}

// Resolve returns the text to send for cmd. Templates are sent verbatim; an
// unknown template id falls back to the text the user typed.
func (r *Resolver) Resolve(ctx context.Context, cmd Command, originalText string) (string, error) {
	switch cmd.Kind {
	case KindEmpreendimento:
		summary, err := r.Summaries.Summarize(ctx, cmd.Payload)
		if err != nil {
			return "", fmt.Errorf("summarize %q: %w", cmd.Payload, err)
		}
		return summary, nil

	case KindTemplate:
		tmpl, err := r.Templates.GetTemplateByID(ctx, cmd.Payload)
		if errors.Is(err, store.ErrNotFound) {
			return originalText, nil
		}
		if err != nil {
			return "", fmt.Errorf("load template %q: %w", cmd.Payload, err)
		}
		return tmpl.Content, nil
	}

	return originalText, nil
}
