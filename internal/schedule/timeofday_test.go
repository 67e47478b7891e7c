package schedule_test

import (
	"testing"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    schedule.TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "09:00:00", want: 9 * 60},
		{in: "13:30", want: 13*60 + 30},
		{in: "13:30:00", want: 13*60 + 30},
		{in: "00:00", want: 0},
		{in: "23:59:59", want: 23*60 + 59},
		{in: "9:00", wantErr: true},
		{in: "09:0", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "09:00:60", wantErr: true},
		{in: "09", wantErr: true},
		{in: "09:00:00:00", wantErr: true},
		{in: "", wantErr: true},
		{in: "nine am", wantErr: true},
	}

	for _, tc := range tests {
		got, err := schedule.ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayBothPrecisionsAgree(t *testing.T) {
	// The bug class this type exists to kill: HH:MM and HH:MM:SS forms
	// of the same instant must compare equal after parsing.
	short := schedule.MustTimeOfDay("09:30")
	long := schedule.MustTimeOfDay("09:30:00")
	if short != long {
		t.Fatalf("09:30 parsed as %d, 09:30:00 parsed as %d", short, long)
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	tod := schedule.MustTimeOfDay("09:05")
	if got := tod.String(); got != "09:05:00" {
		t.Errorf("String() = %q, want 09:05:00", got)
	}
	if got := tod.Short(); got != "09:05" {
		t.Errorf("Short() = %q, want 09:05", got)
	}
}

func TestTimeOfDayAdd(t *testing.T) {
	start := schedule.MustTimeOfDay("09:00")
	if got := start.Add(45); got != schedule.MustTimeOfDay("09:45") {
		t.Errorf("09:00 + 45min = %s, want 09:45:00", got)
	}
}
