// Package templates extracts and fills {name} placeholders in message bodies.
//
// {name} is the only placeholder syntax. A name is any run of characters
// other than braces, so "{código}", "{nome-cliente}" and "{nome completo}" are
// all placeholders. In "{{nome}}" the inner "{nome}" is the placeholder and
// the outer braces are plain text.
package templates

import (
	"regexp"

	"github.com/samber/lo"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Substitute replaces every {key} whose key is in vars with its value.
//
// The scan runs once over the original content, so an inserted value is
// never rescanned: Substitute("{a}{b}", {a: "{b}", b: "X"}) is "{b}X".
// Placeholders without a value are left untouched.
func Substitute(content string, vars map[string]string) string {
	if len(vars) == 0 {
		return content
	}
	return placeholder.ReplaceAllStringFunc(content, func(match string) string {
		if value, ok := vars[match[1:len(match)-1]]; ok {
			return value
		}
		return match
	})
}

// ExtractVariables returns every placeholder name in order of appearance,
// duplicates included.
func ExtractVariables(content string) []string {
	matches := placeholder.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Missing returns the distinct placeholder names in content that vars does
// not fill, in order of first appearance.
func Missing(content string, vars map[string]string) []string {
	return lo.Uniq(lo.Filter(ExtractVariables(content), func(name string, _ int) bool {
		_, ok := vars[name]
		return !ok
	}))
}
