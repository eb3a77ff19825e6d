package imaging

import (
	"errors"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestAge_AnniversaryBoundaries(t *testing.T) {
	birth := date(t, "2010-06-15")
	tests := []struct {
		ref  string
		want int
	}{
		{"2020-06-14", 9},
		{"2020-06-15", 10},
		{"2020-06-16", 10},
		{"2010-06-15", 0},
		{"2011-01-01", 0},
		{"2020-05-31", 9},
		{"2020-07-01", 10},
	}
	for _, tt := range tests {
		if got := Age(birth, date(t, tt.ref)); got != tt.want {
			t.Errorf("Age(2010-06-15, %s) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}

func TestAge_LeapDayBirthday(t *testing.T) {
	birth := date(t, "2012-02-29")
	if got := Age(birth, date(t, "2013-02-28")); got != 0 {
		t.Errorf("expected 0 on 2013-02-28, got %d", got)
	}
	if got := Age(birth, date(t, "2013-03-01")); got != 1 {
		t.Errorf("expected 1 on 2013-03-01, got %d", got)
	}
}

func TestAgeOn_EmptyBirthdayIsZero(t *testing.T) {
	age, err := AgeOn("", "2024-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if age != 0 {
		t.Errorf("expected 0, got %d", age)
	}
}

func TestAgeOn_InvalidDates(t *testing.T) {
	if _, err := AgeOn("2020/01/01", "2024-01-01"); err == nil {
		t.Error("expected error for malformed birthday")
	}
	if _, err := AgeOn("2020-01-01", "tomorrow"); err == nil {
		t.Error("expected error for malformed reference date")
	}
}

func TestCategory_Boundary(t *testing.T) {
	for age := 0; age <= 11; age++ {
		if Category(age) != AgeChild {
			t.Errorf("age %d should be child", age)
		}
	}
	for _, age := range []int{12, 13, 40, 99} {
		if Category(age) != AgeAdult {
			t.Errorf("age %d should be adult", age)
		}
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name  string
		types []Type
		sides []Side
		want  int
	}{
		{"panorama only", []Type{TypePanorama}, nil, 402},
		{"bitewing no side", []Type{TypeBitewing}, nil, 0},
		{"bitewing one side", []Type{TypeBitewing}, []Side{SideLeft}, 48},
		{"bitewing two sides", []Type{TypeBitewing}, []Side{SideLeft, SideRight}, 96},
		{"bitewing duplicate side", []Type{TypeBitewing}, []Side{SideRight, SideRight}, 48},
		{"dental plus panorama", []Type{TypeDental, TypePanorama}, nil, 450},
		{"sides ignored without bitewing", []Type{TypeCT}, []Side{SideLeft, SideRight}, 1170},
		{"empty", nil, nil, 0},
		{"all types", AllTypes(), []Side{SideLeft}, 48 + 402 + 1170 + 48 + 402 + 402 + 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Points(tt.types, tt.sides); got != tt.want {
				t.Errorf("Points() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPoints_Additive(t *testing.T) {
	sides := []Side{SideRight}
	sum := 0
	for _, ty := range AllTypes() {
		sum += Points([]Type{ty}, sides)
	}
	if got := Points(AllTypes(), sides); got != sum {
		t.Errorf("expected additive total %d, got %d", sum, got)
	}
}

func TestLookup_Total(t *testing.T) {
	for _, ty := range AllTypes() {
		for _, cat := range []AgeCategory{AgeChild, AgeAdult} {
			for _, body := range []BodyType{BodySmall, BodyNormal, BodyLarge} {
				s, err := Lookup(ty, cat, body)
				if err != nil {
					t.Fatalf("Lookup(%s,%s,%s) error: %v", ty, cat, body, err)
				}
				if !s.Positive() {
					t.Errorf("Lookup(%s,%s,%s) returned non-positive settings %+v", ty, cat, body, s)
				}
			}
		}
	}
	if len(Templates()) != 42 {
		t.Errorf("expected 42 template rows, got %d", len(Templates()))
	}
}

func TestLookup_Values(t *testing.T) {
	tests := []struct {
		ty   Type
		cat  AgeCategory
		body BodyType
		want ExposureSettings
	}{
		{TypeDental, AgeAdult, BodyNormal, ExposureSettings{60, 7, 0.10}},
		{TypePanorama, AgeAdult, BodyLarge, ExposureSettings{74, 12, 14.0}},
		{TypeCT, AgeChild, BodySmall, ExposureSettings{80, 4, 12.0}},
		{TypeBitewing, AgeAdult, BodyLarge, ExposureSettings{65, 7, 0.15}},
		{TypeCephalo, AgeChild, BodyNormal, ExposureSettings{78, 10, 0.4}},
		{TypeTMJ, AgeChild, BodyLarge, ExposureSettings{75, 8, 10.0}},
		{TypeFullMouth10, AgeChild, BodySmall, ExposureSettings{55, 5, 0.05}},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.ty, tt.cat, tt.body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Lookup(%s,%s,%s) = %+v, want %+v", tt.ty, tt.cat, tt.body, got, tt.want)
		}
	}
}

func TestLookup_UnknownKey(t *testing.T) {
	_, err := Lookup(Type("MRI"), AgeAdult, BodyNormal)
	if !errors.Is(err, ErrUnknownExposure) {
		t.Fatalf("expected ErrUnknownExposure, got %v", err)
	}
	if _, err := Lookup(TypeDental, AgeCategory("senior"), BodyNormal); err == nil {
		t.Error("expected error for unknown age category")
	}
}

func TestValidateTeeth(t *testing.T) {
	if err := ValidateTeeth([]int{11, 18, 21, 38, 48}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range [][]int{{10}, {19}, {51}, {9}, {11, 11}} {
		if err := ValidateTeeth(bad); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}

func TestNeedsToothSelection(t *testing.T) {
	if NeedsToothSelection([]Type{TypePanorama, TypeCephalo}) {
		t.Error("panorama and cephalo are whole-arch")
	}
	if !NeedsToothSelection([]Type{TypePanorama, TypeDental}) {
		t.Error("dental needs tooth selection")
	}
}

func TestLocationOptions(t *testing.T) {
	opts := LocationOptions()
	if len(opts) != 15 {
		t.Fatalf("expected 15 options, got %d", len(opts))
	}
	if opts[0] != "チェア 1" || opts[11] != "チェア 12" {
		t.Errorf("unexpected chair labels: %q, %q", opts[0], opts[11])
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("PANORAMA"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseType("panorama"); err == nil {
		t.Error("expected error for lower-case type")
	}
}
