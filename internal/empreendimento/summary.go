package empreendimento

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"
)

// Provider renders chat-ready summaries of the development catalogue.
type Provider struct {
	Store store.EmpreendimentoStore
}

func NewProvider(s store.EmpreendimentoStore) *Provider {
	return &Provider{Store: s}
}

// Summarize describes the empreendimento called name. Unknown names produce a
// "not found" line rather than an error.
func (p *Provider) Summarize(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Informe o nome do empreendimento entre aspas, por exemplo: /\"Residencial Sol\"", nil
	}

	e, err := p.Store.FindEmpreendimentoByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Empreendimento \"%s\" não encontrado.", name), nil
	}
	if err != nil {
		return "", err
	}
	return Format(e), nil
}

// Format builds the multi-line summary for e, omitting empty fields.
func Format(e models.Empreendimento) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏢 *%s*\n", e.Name))

	location := strings.Join(nonEmpty(e.Neighborhood, e.City), ", ")
	if location != "" {
		sb.WriteString(fmt.Sprintf("📍 %s\n", location))
	}
	if e.Typology != "" {
		sb.WriteString(fmt.Sprintf("🛏️ %s\n", e.Typology))
	}
	if e.PriceFrom > 0 {
		sb.WriteString(fmt.Sprintf("💰 A partir de %s\n", FormatBRL(e.PriceFrom)))
	}
	switch {
	case e.UnitsAvailable == 1:
		sb.WriteString("🔑 1 unidade disponível\n")
	case e.UnitsAvailable > 1:
		sb.WriteString(fmt.Sprintf("🔑 %d unidades disponíveis\n", e.UnitsAvailable))
	}
	if e.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatBRL renders v as Brazilian currency, e.g. 350000.5 -> "R$ 350.000,50".
func FormatBRL(v float64) string {
	cents := int64(v*100 + 0.5)
	whole, frac := cents/100, cents%100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}
	return fmt.Sprintf("R$ %s,%02d", grouped.String(), frac)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
