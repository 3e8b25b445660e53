package models

// Product mirrors the backend-owned product fields the scanner needs. It is
// looked up fresh on every scan; QtyAvailable reflects backend state at call
// time and must never be cached across scans.
type Product struct {
	ID           int
	Name         string
	Barcode      string
	UoMID        int
	QtyAvailable float64
}
