package layout

import (
	"fmt"

	"monty/internal/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnsized is reported for the invalid and unknown sentinels.
	LayoutErrUnsized LayoutErrorKind = iota + 1
	// LayoutErrUnknownType is reported for ids the universe never issued.
	LayoutErrUnknownType
	// LayoutErrMember wraps the failure of one member of a member list.
	LayoutErrMember
	// LayoutErrTooLarge is reported for offsets beyond a 32-bit displacement.
	LayoutErrTooLarge
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Index int          // for LayoutErrMember; the offset for LayoutErrTooLarge
	Err   *LayoutError // for LayoutErrMember
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnsized:
		return fmt.Sprintf("type#%d has no size", e.Type)
	case LayoutErrUnknownType:
		return fmt.Sprintf("unknown type#%d", e.Type)
	case LayoutErrMember:
		return fmt.Sprintf("member %d: %v", e.Index, e.Err)
	case LayoutErrTooLarge:
		return fmt.Sprintf("offset %d does not fit a 32-bit displacement", e.Index)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}
