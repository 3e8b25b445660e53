package models

import "time"

// OperationKind identifies which backend transaction an operation record
// points at, and therefore which reversal path undo must take.
type OperationKind string

const (
	OpProductionOrder OperationKind = "production_order"
	OpReceiptMove     OperationKind = "receipt_move"
	OpIssueMove       OperationKind = "issue_move"
)

// OperationRecord is one completed transaction tracked for undo. Records are
// immutable once created.
type OperationRecord struct {
	Kind        OperationKind
	BackendID   int
	ProductName string
	Quantity    float64
	Timestamp   time.Time
}
