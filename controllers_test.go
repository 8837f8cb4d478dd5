package main

import (
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2025-06-14", true, "2025-06-14"},
		{"2025-06-14T13:30:00Z", true, "2025-06-14"},
		{"14/06/2025", false, ""},
		{"", false, ""},
	}
	for _, tc := range cases {
		got, err := parseDate(tc.in)
		if tc.ok != (err == nil) {
			t.Errorf("parseDate(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && DayKey(got) != tc.want {
			t.Errorf("parseDate(%q) = %v, want day %s", tc.in, got, tc.want)
		}
	}
}

func TestRateError(t *testing.T) {
	cases := []struct {
		name     string
		margin   *float64
		donation *float64
		ok       bool
	}{
		{"nil rates", nil, nil, true},
		{"zero margin", f64(0), f64(0), true},
		{"typical rates", f64(0.35), f64(0.1), true},
		{"donation of all gross", f64(0.3), f64(1), true},
		{"full margin", f64(1), nil, false}, // would divide by zero in projection
		{"margin above one", f64(1.2), nil, false},
		{"negative margin", f64(-0.1), nil, false},
		{"donation above one", nil, f64(1.01), false},
		{"negative donation", nil, f64(-0.5), false},
	}
	for _, tc := range cases {
		if got := rateError(tc.margin, tc.donation); (got == "") != tc.ok {
			t.Errorf("%s: rateError = %q, want ok=%v", tc.name, got, tc.ok)
		}
	}
}

func TestStatusValidation(t *testing.T) {
	for _, s := range []string{StatusPlanned, StatusConfirmed, StatusCompleted, StatusCanceled} {
		if !validEventStatus(s) {
			t.Errorf("validEventStatus(%q) = false", s)
		}
	}
	if validEventStatus("archived") {
		t.Errorf("unknown event status accepted")
	}

	for _, s := range []string{TaskOpen, TaskDone, TaskSkipped} {
		if !validTaskStatus(s) {
			t.Errorf("validTaskStatus(%q) = false", s)
		}
	}
	if validTaskStatus("todo") {
		t.Errorf("unknown task status accepted")
	}
}
