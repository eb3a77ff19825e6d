package imaging

// Insurance base points per imaging type under the fee schedule.
var basePoints = map[Type]int{
	TypeDental:      48,
	TypePanorama:    402,
	TypeCT:          1170,
	TypeBitewing:    48,
	TypeCephalo:     402,
	TypeTMJ:         402,
	TypeFullMouth10: 480,
}

// BasePoints returns the base point value for t, or 0 for an unknown type.
func BasePoints(t Type) int {
	return basePoints[t]
}

// Points totals insurance points for a selection. Bitewing is billed per
// selected side (0, 1 or 2); every other type counts once.
func Points(types []Type, sides []Side) int {
	total := 0
	for _, t := range types {
		p := basePoints[t]
		if t == TypeBitewing {
			p *= countSides(sides)
		}
		total += p
	}
	return total
}

func countSides(sides []Side) int {
	var left, right bool
	for _, s := range sides {
		switch s {
		case SideLeft:
			left = true
		case SideRight:
			right = true
		}
	}
	n := 0
	if left {
		n++
	}
	if right {
		n++
	}
	return n
}

// Contains reports whether t is in types.
func Contains(types []Type, t Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
