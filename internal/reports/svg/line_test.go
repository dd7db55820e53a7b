package svg

import (
	"strings"
	"testing"
)

func TestLineRendersSeries(t *testing.T) {
	out, err := Line(720, 240, []float64{10, 25, 5}, []string{"Mon", "Tue", "Wed"}, LineOpts{Title: "Revenue"})
	if err != nil {
		t.Fatalf("render line: %v", err)
	}
	body := string(out)
	if !strings.Contains(body, "<svg") || !strings.Contains(body, "</svg>") {
		t.Fatalf("expected svg document")
	}
	if !strings.Contains(body, "Revenue") {
		t.Fatalf("expected title in output")
	}
	for _, label := range []string{"Mon", "Tue", "Wed"} {
		if !strings.Contains(body, label) {
			t.Fatalf("expected label %q in output", label)
		}
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	if _, err := Line(720, 240, []float64{1, 2}, []string{"only one"}, LineOpts{}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
}

func TestLineRejectsEmptySeries(t *testing.T) {
	if _, err := Line(720, 240, nil, nil, LineOpts{}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}

func TestLineSinglePointCentred(t *testing.T) {
	out, err := Line(100, 100, []float64{7}, []string{"today"}, LineOpts{})
	if err != nil {
		t.Fatalf("render single point: %v", err)
	}
	if !strings.Contains(string(out), "today") {
		t.Fatalf("expected single label")
	}
}
