package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		ref   time.Time
		want  int
	}{
		{
			name:  "birthday already passed this year",
			birth: date(2000, time.March, 10),
			ref:   date(2025, time.August, 1),
			want:  25,
		},
		{
			name:  "day before birthday",
			birth: date(2010, time.June, 15),
			ref:   date(2025, time.June, 14),
			want:  14,
		},
		{
			name:  "on the birthday",
			birth: date(2010, time.June, 15),
			ref:   date(2025, time.June, 15),
			want:  15,
		},
		{
			name:  "day after birthday",
			birth: date(2010, time.June, 15),
			ref:   date(2025, time.June, 16),
			want:  15,
		},
		{
			name:  "birthday later in a later month",
			birth: date(2010, time.December, 31),
			ref:   date(2025, time.January, 1),
			want:  14,
		},
		{
			name:  "same month earlier day",
			birth: date(1990, time.May, 20),
			ref:   date(2025, time.May, 5),
			want:  34,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.birth, tt.ref); got != tt.want {
				t.Errorf("AgeAt(%v, %v) = %d, want %d", tt.birth, tt.ref, got, tt.want)
			}
		})
	}
}

func TestUserAge(t *testing.T) {
	u := User{DateOfBirth: date(2005, time.February, 28)}
	if got := u.Age(date(2025, time.February, 28)); got != 20 {
		t.Errorf("Age() = %d, want 20", got)
	}
}

func TestEnumValid(t *testing.T) {
	if !ProjectBackEnd.Valid() || ProjectType("WEB").Valid() {
		t.Error("ProjectType.Valid() misclassifies values")
	}
	if !StatusInProgress.Valid() || IssueStatus("CANCELLED").Valid() {
		t.Error("IssueStatus.Valid() misclassifies values")
	}
	if !PriorityHigh.Valid() || IssuePriority("URGENT").Valid() {
		t.Error("IssuePriority.Valid() misclassifies values")
	}
	if !TagImprovement.Valid() || IssueTag("FEATURE").Valid() {
		t.Error("IssueTag.Valid() misclassifies values")
	}
}
