package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestMarkdownSanitises(t *testing.T) {
	out := string(Markdown("**Visit** us\n\n<script>alert(1)</script>\n\n[site](https://example.com)"))
	require.Contains(t, out, "<strong>Visit</strong>")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, `href="https://example.com"`)
	require.Contains(t, out, `rel="nofollow"`)
	require.Empty(t, Markdown("   "))
}

func TestSanitizeHTMLStripsHandlers(t *testing.T) {
	out := string(SanitizeHTML(`<p onclick="x()">Hello</p>`))
	require.Equal(t, "<p>Hello</p>", out)
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Hello\n <b>world</b></p><script>var a = 1;</script><p>again</p>")
	require.Equal(t, "Hello world again", got)
	require.Empty(t, PlainText(""))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate(" short ", 10))

	long := strings.Repeat("слово ", 60)
	got := Truncate(long, DescriptionLimit)
	require.LessOrEqual(t, utf8.RuneCountInString(got), DescriptionLimit)
	require.True(t, strings.HasSuffix(got, "…"))
	require.False(t, strings.Contains(got, " …"))
}

func TestDescription(t *testing.T) {
	require.Equal(t, "We reply within a day.", Description("<p>We reply <em>within</em> a day.</p>"))
}
