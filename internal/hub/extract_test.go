package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "paragraphs on separate lines",
			html: `<p>Salah comes in.</p><p>Isak   goes
			out.</p>`,
			want: "Salah comes in.\nIsak goes out.",
		},
		{
			name: "inline markup stays on the line",
			html: `<p>Captain: <strong>Haaland</strong> (<em>again</em>)</p>`,
			want: "Captain: Haaland (again)",
		},
		{
			name: "headings and lists",
			html: `<h2>Transfers</h2><ul><li>Salah in</li><li>Isak out</li><li> </li></ul>`,
			want: "Transfers\n- Salah in\n- Isak out",
		},
		{
			name: "line breaks",
			html: `<p>Line one<br>Line two</p>`,
			want: "Line one\nLine two",
		},
		{
			name: "scripts and styles dropped",
			html: `<style>p{color:red}</style><p>Visible</p><script>alert(1)</script><noscript>nojs</noscript>`,
			want: "Visible",
		},
		{
			name: "table cells",
			html: `<table>
			  <tr> <th>Player</th> <th>Price</th> </tr>
			  <tr> <td>Salah</td> <td>13.0</td> </tr>
			</table>`,
			want: "Player | Price\nSalah | 13.0",
		},
		{
			name: "nested blocks",
			html: `<div><div><p>Deep</p></div>tail</div>`,
			want: "Deep\ntail",
		},
		{
			name: "empty",
			html: ``,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	in := "  \n\tFirst   line \n\n\n second\tline\n-\n"
	assert.Equal(t, "First line\nsecond line", normalizeText(in))
}
