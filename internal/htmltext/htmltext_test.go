package htmltext

import (
	"strings"
	"testing"
)

func TestText_PrefersMainAndSkipsBoilerplate(t *testing.T) {
	page := `<html><head><title>Spec</title></head><body>
<nav>Home | Products</nav>
<main><h1>Q.PEAK DUO 400</h1><p>Rated power: 400 W</p></main>
<footer>Copyright</footer>
<script>track();</script>
</body></html>`
	got := Text([]byte(page))
	if !strings.Contains(got, "Rated power: 400 W") {
		t.Fatalf("expected main content, got %q", got)
	}
	if strings.Contains(got, "Home | Products") || strings.Contains(got, "Copyright") {
		t.Fatalf("boilerplate leaked into text: %q", got)
	}
}

func TestText_FallsBackToBody(t *testing.T) {
	got := Text([]byte(`<html><body><p>plain   body    text</p></body></html>`))
	if got != "plain body text" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestText_GarbageIsEmpty(t *testing.T) {
	if got := Text([]byte{0xff, 0xfe, 0x00}); strings.TrimSpace(got) != "" {
		t.Fatalf("expected empty text for garbage, got %q", got)
	}
}
