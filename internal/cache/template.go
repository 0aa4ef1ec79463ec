package cache

import (
	"strings"

	"go.trai.ch/zerr"
)

// renderTemplate substitutes ${KEY} placeholders in a template with the given
// values. Unknown placeholders left in the output are an error: a template
// must never reach the external build with an unresolved marker.
func renderTemplate(content string, vars map[string]string) (string, error) {
	rendered := content
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "${"+key+"}", value)
	}

	if start := strings.Index(rendered, "${"); start >= 0 {
		end := strings.Index(rendered[start:], "}")
		if end < 0 {
			end = len(rendered) - start - 1
		}
		return "", zerr.With(zerr.New("unresolved template placeholder"), "placeholder", rendered[start:start+end+1])
	}
	return rendered, nil
}
