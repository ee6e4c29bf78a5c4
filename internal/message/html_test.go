package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	in := `<html><head><style>p { color: red }</style></head>` +
		`<body><p>Hello <b>world</b></p><script>alert(1)</script></body></html>`
	assert.Equal(t, "Hello world", StripHTML(in))
}

func TestStripHTMLPlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "no markup here", StripHTML("no markup here"))
}
