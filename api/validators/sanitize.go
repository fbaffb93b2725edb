package validators

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every tag from free text and trims it.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}
