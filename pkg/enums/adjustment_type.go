package enums

import "fmt"

// AdjustmentType classifies an inventory adjustment log entry.
type AdjustmentType string

const (
	AdjustmentTypeCheckout AdjustmentType = "checkout"
	AdjustmentTypeInvoice  AdjustmentType = "invoice"
	AdjustmentTypeManual   AdjustmentType = "manual"
)

var validAdjustmentTypes = []AdjustmentType{
	AdjustmentTypeCheckout,
	AdjustmentTypeInvoice,
	AdjustmentTypeManual,
}

// String implements fmt.Stringer.
func (a AdjustmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentType.
func (a AdjustmentType) IsValid() bool {
	for _, candidate := range validAdjustmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// RequiresOrigin reports whether logs of this type must reference the line that caused them.
func (a AdjustmentType) RequiresOrigin() bool {
	return a == AdjustmentTypeCheckout || a == AdjustmentTypeInvoice
}

// ParseAdjustmentType converts raw input into an AdjustmentType.
func ParseAdjustmentType(value string) (AdjustmentType, error) {
	for _, candidate := range validAdjustmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment type %q", value)
}
