package calendar

import (
	"errors"
	"os"
	"reflect"
	"testing"
	"time"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/ru_2025.json")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return data
}

func TestParseDayMarkers(t *testing.T) {
	tests := []struct {
		name    string
		days    string
		want    []int
		wantErr bool
	}{
		{
			name: "November 2025",
			days: "1*,2,3+,4,8,9,15,16,22,23,29,30", // 1* = shortened working Saturday
			want: []int{2, 3, 4, 8, 9, 15, 16, 22, 23, 29, 30},
		},
		{
			name: "July 2025",
			days: "5,6,12,13,19,20,26,27",
			want: []int{5, 6, 12, 13, 19, 20, 26, 27},
		},
		{
			name: "Transferred day off is non-working",
			days: "9+",
			want: []int{9},
		},
		{
			name: "Shortened day is working",
			days: "14*",
			want: []int{},
		},
		{
			name: "Plain day",
			days: "3",
			want: []int{3},
		},
		{
			name: "Spaces and trailing comma",
			days: " 1, 2 ,3*,",
			want: []int{1, 2},
		},
		{
			name: "Empty month",
			days: "",
			want: []int{},
		},
		{
			name:    "No digits",
			days:    "1,x+",
			wantErr: true,
		},
		{
			name:    "Day out of range",
			days:    "32",
			wantErr: true,
		},
		{
			name:    "Zero day",
			days:    "0+",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDayMarkers(tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDayMarkers(%q) error = %v, wantErr %v", tt.days, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDayMarkers(%q) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestNormalize_Fixture(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 15, 999, time.FixedZone("MSK", 3*60*60))

	doc, err := Normalize(loadFixture(t), 2025, now)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if doc.Year != 2025 {
		t.Errorf("Year = %d, want 2025", doc.Year)
	}
	if len(doc.Months) != 12 {
		t.Errorf("Months = %d, want 12", len(doc.Months))
	}

	wantAcquired := time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)
	if !doc.AcquiredAt.Equal(wantAcquired) || doc.AcquiredAt.Location() != time.UTC {
		t.Errorf("AcquiredAt = %v, want %v", doc.AcquiredAt, wantAcquired)
	}

	may := doc.Month(5)
	if may == nil {
		t.Fatal("May missing")
	}
	for _, day := range []int{1, 2, 8, 9} {
		if !may.IsNonWorking(day) {
			t.Errorf("May %d should be non-working", day)
		}
	}
	for _, day := range []int{5, 7} {
		if may.IsNonWorking(day) {
			t.Errorf("May %d should be working", day)
		}
	}

	if doc.Statistic == nil || doc.Statistic.Workdays != 247 {
		t.Errorf("Statistic = %+v, want workdays 247", doc.Statistic)
	}
	if len(doc.Transitions) != 5 {
		t.Errorf("Transitions = %d, want 5", len(doc.Transitions))
	}
}

func TestNormalize_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Not JSON", `<html>rate limited</html>`},
		{"Year mismatch", `{"year": 2024, "months": [{"month": 1, "days": "1"}]}`},
		{"Missing months", `{"year": 2025}`},
		{"Empty months", `{"year": 2025, "months": []}`},
		{"Month out of range", `{"year": 2025, "months": [{"month": 13, "days": "1"}]}`},
		{"Duplicate month", `{"year": 2025, "months": [{"month": 1, "days": "1"}, {"month": 1, "days": "2"}]}`},
		{"Bad marker", `{"year": 2025, "months": [{"month": 1, "days": "1,two"}]}`},
		{"Months wrong type", `{"year": 2025, "months": "1,2,3"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw), 2025, time.Now())
			if !errors.Is(err, ErrCorruptData) {
				t.Fatalf("Normalize() error = %v, want ErrCorruptData", err)
			}
			if errors.Is(err, ErrRemoteUnavailable) {
				t.Errorf("Normalize() error %v must not match ErrRemoteUnavailable", err)
			}
			if KindOf(err) != KindCorruptData {
				t.Errorf("KindOf() = %v, want %v", KindOf(err), KindCorruptData)
			}
		})
	}
}

func TestNormalize_IgnoresRemoteDaysInt(t *testing.T) {
	raw := `{"year": 2025, "months": [{"month": 1, "days": "1,2", "days_int": [5]}]}`

	doc, err := Normalize([]byte(raw), 2025, time.Now())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if got := doc.Month(1).NonWorkingDays; !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("NonWorkingDays = %v, want [1 2]", got)
	}
}

func TestIsFresh(t *testing.T) {
	acquired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := 60 * 24 * time.Hour

	tests := []struct {
		name     string
		acquired time.Time
		now      time.Time
		want     bool
	}{
		{"Just acquired", acquired, acquired, true},
		{"Inside TTL", acquired, acquired.Add(ttl / 2), true},
		{"Exactly at TTL", acquired, acquired.Add(ttl), true},
		{"Past TTL", acquired, acquired.Add(ttl + time.Nanosecond), false},
		{"Acquired in the future", acquired.Add(time.Hour), acquired, true},
		{"No timestamp", time.Time{}, acquired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.acquired, ttl, tt.now); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
