package ledger

import "github.com/warelog/skaner/internal/domain/models"

// Ledger is the bounded in-memory history of completed transactions, newest
// at the tail. It is exclusively owned by the scan interpreter and is not
// safe for concurrent use.
type Ledger struct {
	entries  []models.OperationRecord
	capacity int
}

// New builds a ledger holding at most capacity records.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 10
	}
	return &Ledger{capacity: capacity}
}

// Append pushes a record onto the tail, evicting the oldest record when the
// bound would be exceeded. Eviction is independent of undo.
func (l *Ledger) Append(record models.OperationRecord) {
	l.entries = append(l.entries, record)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[1:]
	}
}

// PopLast removes and returns the newest record. The second return is false
// when the ledger is empty.
func (l *Ledger) PopLast() (models.OperationRecord, bool) {
	if len(l.entries) == 0 {
		return models.OperationRecord{}, false
	}

	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

// Restore pushes a just-popped record back onto the tail after a failed
// reversal, returning the ledger to its pre-undo state.
func (l *Ledger) Restore(record models.OperationRecord) {
	l.Append(record)
}

// Len reports the current record count.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the current records, oldest first.
func (l *Ledger) Entries() []models.OperationRecord {
	out := make([]models.OperationRecord, len(l.entries))
	copy(out, l.entries)
	return out
}
