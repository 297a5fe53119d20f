// Package digest renders the human readable markdown summary of a run.
package digest

import (
	"strings"
)

// Key is the store key of the digest, overwritten every run.
const Key = "artifacts/digest.md"

type Digest struct {
	Summary  []string
	Evidence []string
	TODO     string
	Draft    string
}

func (d Digest) Render() string {
	var b strings.Builder
	b.WriteString("# Digest\n\n## Summary\n")
	writeBullets(&b, d.Summary)
	b.WriteString("\n## Evidence\n")
	writeBullets(&b, d.Evidence)
	b.WriteString("\n## TODO\n- ")
	b.WriteString(d.TODO)
	b.WriteString("\n\n## Draft content\n")
	b.WriteString(strings.TrimSpace(d.Draft))
	b.WriteString("\n")
	return b.String()
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
}
