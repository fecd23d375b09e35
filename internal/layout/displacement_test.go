package layout

import (
	"math"
	"testing"

	"monty/internal/types"
)

func TestDisplacementBounds(t *testing.T) {
	if d, err := displacement(math.MaxInt32, types.NoTypeID); err != nil || d != math.MaxInt32 {
		t.Fatalf("largest displacement rejected: %v", err)
	}
	err := func() *LayoutError { _, err := displacement(math.MaxInt32+1, types.NoTypeID); return err }()
	if err == nil || err.Kind != LayoutErrTooLarge || err.Index != math.MaxInt32+1 {
		t.Fatalf("expected a too-large error, got %v", err)
	}
}
