package catalog

import (
	"bytes"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"strings"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Descriptions are stored with escaped control sequences (a literal `\n`
// instead of a newline, and so on).
var richTextReplacer = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "    ",
	`\r`, "",
	`\"`, `"`,
	`\'`, `'`,
	`\/`, `/`,
)

// ResolveRichText unescapes a stored description and trims it.
func ResolveRichText(text string) string {
	return strings.TrimSpace(richTextReplacer.Replace(text))
}

// RenderDescription returns the description as HTML.
func RenderDescription(text string) (string, error) {
	src := ResolveRichText(text)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
