package widgets

import (
	"strings"
	"text/template"
)

// embedTemplate is the snippet customers paste into their pages. Only the
// embed key and branding values vary per widget.
var embedTemplate = template.Must(template.New("embed").Parse(
	`<script src="https://cdn.chatlift.io/widget.js" async></script>
<script>
  window.chatlift = window.chatlift || [];
  window.chatlift.push(["init", {
    key: "{{.EmbedKey}}",
    color: "{{.PrimaryColor}}",
    position: "{{.Position}}",
    greeting: {{printf "%q" .Greeting}}
  }]);
</script>`))

// EmbedCode renders the copy-paste snippet for a widget style.
func EmbedCode(style Style) (string, error) {
	var b strings.Builder
	if err := embedTemplate.Execute(&b, style); err != nil {
		return "", err
	}
	return b.String(), nil
}
