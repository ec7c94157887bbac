package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
)

func upper(s string) string {
	return strings.ToUpper(s)
}

func TestResolve_FirstValidStrategyWins(t *testing.T) {
	node := listingNode(t, `<b class="a">x</b><b class="b">second</b><b class="c">third</b>`)

	var tried []string
	track := func(sel string) func(browser.Node) []string {
		locate := FirstText(sel)
		return func(n browser.Node) []string {
			tried = append(tried, sel)
			return locate(n)
		}
	}

	got, ok := Resolve(node, Selectors([]string{".missing", ".a", ".b", ".c"}, track, nil, longerThan(3)))

	assert.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, []string{".missing", ".a", ".b"}, tried, "strategies after the winner are not consulted")
}

func TestResolve_ParseFailureFallsThrough(t *testing.T) {
	node := listingNode(t, `<i class="p">sob consulta</i><i class="q">R$ 12,00</i>`)

	got, ok := Resolve(node, Selectors([]string{".p", ".q"}, FirstText, ParsePrice, nil))

	assert.True(t, ok)
	assert.InDelta(t, 12.0, got, 0.0001)
}

func TestResolve_Exhausted(t *testing.T) {
	node := listingNode(t, `<p>nothing</p>`)

	_, ok := Resolve(node, Selectors([]string{".x", ".y"}, FirstText, ParsePrice, nil))
	assert.False(t, ok)

	_, ok = Resolve[string](nil, nil)
	assert.False(t, ok)
}

func TestResolve_AllCandidatesOfOneStrategy(t *testing.T) {
	node := listingNode(t, `<ul><li>ab</li><li>abcd</li></ul>`)

	got, ok := Resolve(node, []Strategy[string]{{Name: "li", Locate: AllText("li"), Validate: longerThan(3)}})

	assert.True(t, ok)
	assert.Equal(t, "abcd", got)
}
