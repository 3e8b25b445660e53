package models

// Mode selects which stock direction a product scan triggers.
type Mode int

const (
	ModeUnset Mode = iota
	ModeAdd
	ModeRemove
)

// String returns a human-readable mode name for operator messages.
func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeRemove:
		return "remove"
	default:
		return "unset"
	}
}

// QuantityMode decides how the per-scan quantity is resolved.
type QuantityMode int

const (
	// QuantitySingle processes one unit per scan.
	QuantitySingle QuantityMode = iota
	// QuantityMulti prompts the operator for a quantity on every scan.
	QuantityMulti
)

func (q QuantityMode) String() string {
	if q == QuantityMulti {
		return "multi"
	}
	return "single"
}
