package imaging

import (
	"errors"
	"fmt"
)

// ErrUnknownExposure is returned when a lookup key falls outside the closed
// enums. Valid keys always resolve.
var ErrUnknownExposure = errors.New("no exposure template for combination")

type exposureKey struct {
	Type     Type
	Category AgeCategory
	Body     BodyType
}

// Default exposure settings per (type, age category, body type). These are
// radiation dose parameters and must match the clinic's published table.
var exposureTable = map[exposureKey]ExposureSettings{
	{TypeDental, AgeAdult, BodySmall}:  {KV: 60, MA: 7, Sec: 0.08},
	{TypeDental, AgeAdult, BodyNormal}: {KV: 60, MA: 7, Sec: 0.10},
	{TypeDental, AgeAdult, BodyLarge}:  {KV: 65, MA: 7, Sec: 0.12},
	{TypeDental, AgeChild, BodySmall}:  {KV: 55, MA: 5, Sec: 0.05},
	{TypeDental, AgeChild, BodyNormal}: {KV: 55, MA: 5, Sec: 0.06},
	{TypeDental, AgeChild, BodyLarge}:  {KV: 60, MA: 5, Sec: 0.08},

	{TypePanorama, AgeAdult, BodySmall}:  {KV: 68, MA: 8, Sec: 12.0},
	{TypePanorama, AgeAdult, BodyNormal}: {KV: 70, MA: 10, Sec: 12.0},
	{TypePanorama, AgeAdult, BodyLarge}:  {KV: 74, MA: 12, Sec: 14.0},
	{TypePanorama, AgeChild, BodySmall}:  {KV: 60, MA: 6, Sec: 10.0},
	{TypePanorama, AgeChild, BodyNormal}: {KV: 62, MA: 8, Sec: 10.0},
	{TypePanorama, AgeChild, BodyLarge}:  {KV: 65, MA: 8, Sec: 12.0},

	{TypeCT, AgeAdult, BodySmall}:  {KV: 85, MA: 5, Sec: 15.0},
	{TypeCT, AgeAdult, BodyNormal}: {KV: 90, MA: 6, Sec: 15.0},
	{TypeCT, AgeAdult, BodyLarge}:  {KV: 90, MA: 8, Sec: 15.0},
	{TypeCT, AgeChild, BodySmall}:  {KV: 80, MA: 4, Sec: 12.0},
	{TypeCT, AgeChild, BodyNormal}: {KV: 80, MA: 5, Sec: 12.0},
	{TypeCT, AgeChild, BodyLarge}:  {KV: 85, MA: 5, Sec: 12.0},

	{TypeBitewing, AgeAdult, BodySmall}:  {KV: 60, MA: 7, Sec: 0.10},
	{TypeBitewing, AgeAdult, BodyNormal}: {KV: 60, MA: 7, Sec: 0.12},
	{TypeBitewing, AgeAdult, BodyLarge}:  {KV: 65, MA: 7, Sec: 0.15},
	{TypeBitewing, AgeChild, BodySmall}:  {KV: 55, MA: 5, Sec: 0.06},
	{TypeBitewing, AgeChild, BodyNormal}: {KV: 55, MA: 5, Sec: 0.08},
	{TypeBitewing, AgeChild, BodyLarge}:  {KV: 60, MA: 5, Sec: 0.10},

	{TypeCephalo, AgeAdult, BodySmall}:  {KV: 80, MA: 10, Sec: 0.5},
	{TypeCephalo, AgeAdult, BodyNormal}: {KV: 84, MA: 12, Sec: 0.5},
	{TypeCephalo, AgeAdult, BodyLarge}:  {KV: 88, MA: 12, Sec: 0.6},
	{TypeCephalo, AgeChild, BodySmall}:  {KV: 75, MA: 8, Sec: 0.4},
	{TypeCephalo, AgeChild, BodyNormal}: {KV: 78, MA: 10, Sec: 0.4},
	{TypeCephalo, AgeChild, BodyLarge}:  {KV: 80, MA: 10, Sec: 0.5},

	{TypeTMJ, AgeAdult, BodySmall}:  {KV: 70, MA: 10, Sec: 10.0},
	{TypeTMJ, AgeAdult, BodyNormal}: {KV: 75, MA: 10, Sec: 12.0},
	{TypeTMJ, AgeAdult, BodyLarge}:  {KV: 80, MA: 10, Sec: 12.0},
	{TypeTMJ, AgeChild, BodySmall}:  {KV: 65, MA: 8, Sec: 8.0},
	{TypeTMJ, AgeChild, BodyNormal}: {KV: 70, MA: 8, Sec: 8.0},
	{TypeTMJ, AgeChild, BodyLarge}:  {KV: 75, MA: 8, Sec: 10.0},

	{TypeFullMouth10, AgeAdult, BodySmall}:  {KV: 60, MA: 7, Sec: 0.08},
	{TypeFullMouth10, AgeAdult, BodyNormal}: {KV: 60, MA: 7, Sec: 0.10},
	{TypeFullMouth10, AgeAdult, BodyLarge}:  {KV: 65, MA: 7, Sec: 0.12},
	{TypeFullMouth10, AgeChild, BodySmall}:  {KV: 55, MA: 5, Sec: 0.05},
	{TypeFullMouth10, AgeChild, BodyNormal}: {KV: 55, MA: 5, Sec: 0.06},
	{TypeFullMouth10, AgeChild, BodyLarge}:  {KV: 60, MA: 5, Sec: 0.08},
}

// Lookup returns the default exposure settings for an imaging type given the
// patient's age category and body type. There is no fallback row.
func Lookup(t Type, cat AgeCategory, body BodyType) (ExposureSettings, error) {
	s, ok := exposureTable[exposureKey{Type: t, Category: cat, Body: body}]
	if !ok {
		return ExposureSettings{}, fmt.Errorf("%w: %s/%s/%s", ErrUnknownExposure, t, cat, body)
	}
	return s, nil
}

// TemplateRow is one flattened row of the exposure table.
type TemplateRow struct {
	Type        Type        `json:"type"`
	AgeCategory AgeCategory `json:"age_category"`
	BodyType    BodyType    `json:"body_type"`
	ExposureSettings
}

// Templates returns the full table in canonical order (type, adult before
// child, small to large).
func Templates() []TemplateRow {
	cats := []AgeCategory{AgeAdult, AgeChild}
	bodies := []BodyType{BodySmall, BodyNormal, BodyLarge}
	rows := make([]TemplateRow, 0, len(exposureTable))
	for _, t := range allTypes {
		for _, c := range cats {
			for _, b := range bodies {
				rows = append(rows, TemplateRow{
					Type: t, AgeCategory: c, BodyType: b,
					ExposureSettings: exposureTable[exposureKey{t, c, b}],
				})
			}
		}
	}
	return rows
}
