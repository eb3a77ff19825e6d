package imaging

import "fmt"

// Type is the kind of radiographic exposure performed.
type Type string

const (
	TypeDental      Type = "DENTAL"
	TypePanorama    Type = "PANORAMA"
	TypeCT          Type = "CT"
	TypeBitewing    Type = "BITEWING"
	TypeCephalo     Type = "CEPHALO"
	TypeTMJ         Type = "TMJ"
	TypeFullMouth10 Type = "FULL_MOUTH_10"
)

var allTypes = []Type{
	TypeDental, TypePanorama, TypeCT, TypeBitewing, TypeCephalo, TypeTMJ, TypeFullMouth10,
}

var typeLabels = map[Type]string{
	TypeDental:      "デンタル",
	TypePanorama:    "パノラマ",
	TypeCT:          "歯科用CT",
	TypeBitewing:    "バイトウィング",
	TypeCephalo:     "セファロ",
	TypeTMJ:         "顎関節",
	TypeFullMouth10: "デンタル10枚法",
}

// AllTypes returns every imaging type in canonical display order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

func (t Type) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label returns the clinic-facing display name.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseType converts a raw string into a known Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown imaging type: %s", s)
	}
	return t, nil
}

// BodyType is the coarse patient-size bucket used to select a dose template.
type BodyType string

const (
	BodySmall  BodyType = "small"
	BodyNormal BodyType = "normal"
	BodyLarge  BodyType = "large"
)

var validBodyTypes = map[BodyType]bool{
	BodySmall: true, BodyNormal: true, BodyLarge: true,
}

func (b BodyType) Valid() bool { return validBodyTypes[b] }

// AgeCategory is derived from an age; it is never stored on its own.
type AgeCategory string

const (
	AgeChild AgeCategory = "child"
	AgeAdult AgeCategory = "adult"
)

func (a AgeCategory) Valid() bool { return a == AgeChild || a == AgeAdult }

// Side is a bitewing exposure side.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

func (s Side) Valid() bool { return s == SideLeft || s == SideRight }

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var validGenders = map[Gender]bool{
	GenderMale: true, GenderFemale: true, GenderOther: true,
}

func (g Gender) Valid() bool { return validGenders[g] }

// ExposureSettings are the physical radiation parameters for one exposure.
type ExposureSettings struct {
	KV  float64 `json:"kv" bson:"kv"`
	MA  float64 `json:"ma" bson:"ma"`
	Sec float64 `json:"sec" bson:"sec"`
}

// Positive reports whether every parameter is strictly greater than zero.
func (e ExposureSettings) Positive() bool {
	return e.KV > 0 && e.MA > 0 && e.Sec > 0
}
