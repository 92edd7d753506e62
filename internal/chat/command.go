package chat

import "strings"

type Kind string

const (
	KindNone           Kind = "none"
	KindManager        Kind = "manager"
	KindEmpreendimento Kind = "empreendimento"
	KindTemplate       Kind = "template"
)

const (
	managerPrefix        = "/@"
	empreendimentoPrefix = `/"`
	empreendimentoSuffix = `"`
	templatePrefix       = "/template "
)

// Command is a classified chat input. Payload is empty for KindNone.
type Command struct {
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload,omitempty"`
}

// Parse classifies raw chat input. It never fails: anything that is not a
// recognised slash command is KindNone.
//
//	/@texto          -> manager, "texto"
//	/"Residencial"   -> empreendimento, "Residencial"
//	/template boas   -> template, "boas"
func Parse(text string) Command {
	switch {
	case strings.HasPrefix(text, managerPrefix):
		return Command{Kind: KindManager, Payload: text[len(managerPrefix):]}

	case len(text) >= len(empreendimentoPrefix)+len(empreendimentoSuffix) &&
		strings.HasPrefix(text, empreendimentoPrefix) &&
		strings.HasSuffix(text, empreendimentoSuffix):
		return Command{
			Kind:    KindEmpreendimento,
			Payload: text[len(empreendimentoPrefix) : len(text)-len(empreendimentoSuffix)],
		}

	case strings.HasPrefix(text, templatePrefix):
		return Command{Kind: KindTemplate, Payload: text[len(templatePrefix):]}
	}

	return Command{Kind: KindNone}
}
