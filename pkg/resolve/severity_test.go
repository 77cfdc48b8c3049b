package resolve

import "testing"

func TestSeverityRaise(t *testing.T) {
	tests := []struct {
		a, b, want Severity
	}{
		{SeverityInfo, SeverityWarning, SeverityWarning},
		{SeverityCritical, SeverityWarning, SeverityCritical},
		{SeverityWarning, SeverityInfo, SeverityWarning},
	}
	for _, tt := range tests {
		if got := tt.a.Raise(tt.b); got != tt.want {
			t.Errorf("%v.Raise(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Raise(tt.a); got != tt.want {
			t.Errorf("Raise is not commutative for %v, %v", tt.a, tt.b)
		}
	}
	if got := MaxSeverity(); got != SeverityInfo {
		t.Errorf("MaxSeverity() = %v", got)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityCritical} {
		got, err := ParseSeverity(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSeverity(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("ParseSeverity(fatal) should fail")
	}

	var s Severity
	if err := s.UnmarshalText([]byte("WARNING")); err != nil || s != SeverityWarning {
		t.Errorf("UnmarshalText = %v, %v", s, err)
	}
	if !SeverityCritical.AtLeast(SeverityWarning) || SeverityInfo.AtLeast(SeverityWarning) {
		t.Error("AtLeast mismatch")
	}
}
