package accounting

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTradeType      = errors.New("invalid trade type")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrReversal              = errors.New("trade cannot be reversed")
)

// InsufficientInventoryError reports the held and requested quantities of a
// rejected sell.
type InsufficientInventoryError struct {
	NameID    int64
	Held      int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %d: held %d, requested %d", e.NameID, e.Held, e.Requested)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
