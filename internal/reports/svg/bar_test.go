package svg

import (
	"strings"
	"testing"
)

func TestBarsRendersSeries(t *testing.T) {
	out, err := Bars(720, 240, []float64{30, 20, 10}, []string{"B", "C", "A"}, BarOpts{Title: "Top products"})
	if err != nil {
		t.Fatalf("render bars: %v", err)
	}
	body := string(out)
	if strings.Count(body, "<rect") != 3 {
		t.Fatalf("expected 3 bars, got %d", strings.Count(body, "<rect"))
	}
	if !strings.Contains(body, "Top products") {
		t.Fatalf("expected title in output")
	}
}

func TestBarsRejectsMismatchedLabels(t *testing.T) {
	if _, err := Bars(720, 240, []float64{1}, []string{"a", "b"}, BarOpts{}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
}

func TestBarsTruncatesLongLabels(t *testing.T) {
	out, err := Bars(720, 240, []float64{5}, []string{"An extremely long product name"}, BarOpts{})
	if err != nil {
		t.Fatalf("render bars: %v", err)
	}
	if !strings.Contains(string(out), "…") {
		t.Fatalf("expected truncated label marker")
	}
}
