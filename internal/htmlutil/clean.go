// Package htmlutil sanitizes display text arriving in the feeds. Station
// names come out of the upstream CMS, which entity-escapes and sometimes
// wraps them in markup.
package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser. Handles
// entities, strips tags, and preserves readable text. Plain strings pass
// through unchanged.
func ToText(s string) string {
	return strings.TrimSpace(html2text.HTML2Text(s))
}
