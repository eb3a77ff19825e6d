package imaging

import "fmt"

// ValidTooth reports whether id is a permanent tooth in FDI two-digit
// notation: quadrant 1-4 followed by position 1-8.
func ValidTooth(id int) bool {
	q, pos := id/10, id%10
	return q >= 1 && q <= 4 && pos >= 1 && pos <= 8
}

// ValidateTeeth returns an error naming the first invalid or duplicated tooth.
func ValidateTeeth(ids []int) error {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !ValidTooth(id) {
			return fmt.Errorf("invalid tooth number: %d", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate tooth number: %d", id)
		}
		seen[id] = true
	}
	return nil
}

var toothBased = map[Type]bool{
	TypeDental:   true,
	TypeBitewing: true,
	TypeCT:       true,
}

// ToothBased reports whether the type targets specific teeth rather than the
// whole arch.
func (t Type) ToothBased() bool { return toothBased[t] }

// NeedsToothSelection reports whether any selected type is tooth-based.
func NeedsToothSelection(types []Type) bool {
	for _, t := range types {
		if t.ToothBased() {
			return true
		}
	}
	return false
}

// Location labels offered for request source and destination.
const (
	LocationExamRoom    = "診察室"
	LocationXrayRoom    = "レントゲン室"
	LocationWaitingRoom = "待合室"
	LocationReception   = "受付"
)

// LocationOptions lists the destinations staff can pick: twelve chairs, the
// X-ray room, the waiting room and reception.
func LocationOptions() []string {
	opts := make([]string, 0, 15)
	for i := 1; i <= 12; i++ {
		opts = append(opts, fmt.Sprintf("チェア %d", i))
	}
	return append(opts, LocationXrayRoom, LocationWaitingRoom, LocationReception)
}
