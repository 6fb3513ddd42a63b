package dateparse

import "testing"

func TestMatchDate(t *testing.T) {
	p := New()

	tests := []struct {
		in     string
		wantID string
		ok     bool
	}{
		{"2024-06-01", "iso8601:date", true},
		{"2024-06-01T10:30:00", "iso8601:datetime", true},
		{"2024-06-01 10:30:00", "iso8601:datetime_space", true},
		{"2024-06-01T10:30:00Z", "rfc3339", true},
		{"15.07.1998", "date:dmy_dot", true},
		{"1998/07/15", "date:ymd_slash", true},
		{"3 March 2021", "date:dmon_y", true},
		{"12:34:56", "time:hms", true},
		{"  2024-06-01  ", "iso8601:date", true},
		{"hello", "", false},
		{"2024-13-45", "", false},
		{"", "", false},
		{"12345", "", false},
	}
	for _, tt := range tests {
		m, ok := p.MatchDate(tt.in)
		if ok != tt.ok {
			t.Errorf("MatchDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && m.PatternID != tt.wantID {
			t.Errorf("MatchDate(%q) pattern = %q, want %q", tt.in, m.PatternID, tt.wantID)
		}
	}
}

// Ambiguous day/month slash dates resolve to the same pattern every
// time — the table order is fixed.
func TestMatchDate_AmbiguousSlashDateIsDeterministic(t *testing.T) {
	p := New()
	first, ok := p.MatchDate("03/04/2024")
	if !ok {
		t.Fatal("expected a match")
	}
	for i := 0; i < 10; i++ {
		m, _ := p.MatchDate("03/04/2024")
		if m != first {
			t.Fatalf("MatchDate flapped between %v and %v", first, m)
		}
	}
	if first.PatternID != "date:dmy_slash" {
		t.Errorf("pattern = %q, want date:dmy_slash (first in table)", first.PatternID)
	}
}

func TestDisabled(t *testing.T) {
	var d Disabled
	if _, ok := d.MatchDate("2024-06-01"); ok {
		t.Error("Disabled parser must never match")
	}
}
