package booking

import "testing"

func TestNormalizeDay(t *testing.T) {
	cases := map[string]string{
		"Monday":      "monday",
		"  SATURDAY ": "saturday",
		"sunday":      "sunday",
		"  ":          "",
	}
	for in, want := range cases {
		if got := NormalizeDay(in); got != want {
			t.Errorf("NormalizeDay(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsBookableDay(t *testing.T) {
	for _, day := range BookableDays {
		if !IsBookableDay(day) {
			t.Errorf("%s should be bookable", day)
		}
	}
	for _, day := range []string{"sunday", "funday", "", "mon"} {
		if IsBookableDay(day) {
			t.Errorf("%s should not be bookable", day)
		}
	}
}

func TestIsSunday(t *testing.T) {
	if !IsSunday("sunday") {
		t.Error("sunday should be the holiday")
	}
	if IsSunday("monday") || IsSunday("") {
		t.Error("non-sunday inputs must not match")
	}
}
