package frame

import "github.com/pkg/errors"

// ErrInvalidReferenceSlot is returned for a slot outside 1..3, or slot 0
// (meaning "no reference") passed where a concrete slot is required.
var ErrInvalidReferenceSlot = errors.New("frame: invalid reference slot")

// numReferenceSlots is fixed at 3 (spec.md §9): frames never reference an
// arbitrary prior frame by index, only one of three saved slots.
const numReferenceSlots = 3

// ReferenceArena holds up to three saved reference frames. Saving to a
// slot overwrites and invalidates whatever was there; there is
// deliberately no back-pointer chain between slots, so an arena never
// grows unbounded across a long animation.
type ReferenceArena struct {
	slots [numReferenceSlots]*ImageFrame
}

// NewReferenceArena returns an empty arena.
func NewReferenceArena() *ReferenceArena {
	return &ReferenceArena{}
}

func checkSlot(slot int) error {
	if slot < 1 || slot > numReferenceSlots {
		return errors.Wrapf(ErrInvalidReferenceSlot, "%d", slot)
	}
	return nil
}

// Save stores f in the given slot (1..3), replacing and invalidating any
// previous occupant.
func (a *ReferenceArena) Save(slot int, f *ImageFrame) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	a.slots[slot-1] = f
	return nil
}

// Get returns the frame saved in slot, or nil if the slot is empty.
func (a *ReferenceArena) Get(slot int) (*ImageFrame, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	return a.slots[slot-1], nil
}

// Invalidate clears a slot without replacing it, e.g. when the canvas
// size changes and old reference content no longer applies.
func (a *ReferenceArena) Invalidate(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	a.slots[slot-1] = nil
	return nil
}
