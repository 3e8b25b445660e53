package models

import "strings"

// ScanKind enumerates the ways a scanned line can be interpreted.
type ScanKind string

const (
	ScanEmpty          ScanKind = "empty"
	ScanExit           ScanKind = "exit"
	ScanAddMode        ScanKind = "add_mode"
	ScanRemoveMode     ScanKind = "remove_mode"
	ScanQuantityToggle ScanKind = "quantity_toggle"
	ScanUndo           ScanKind = "undo"
	ScanProduct        ScanKind = "product"
)

// Tokens holds the control barcodes recognized by the interpreter. Control
// matches are exact and case-sensitive; exit words are matched
// case-insensitively because they are typed, not scanned.
type Tokens struct {
	Add       string
	Remove    string
	Multi     string
	Undo      string
	ExitWords []string
}

// Scan represents one classified line from a barcode reader or the console.
type Scan struct {
	Kind ScanKind
	Code string
}

// ClassifyScan trims the raw line and derives its Scan classification. Any
// non-empty line that matches no control token is treated as a product
// barcode.
func ClassifyScan(raw string, tokens Tokens) Scan {
	code := strings.TrimSpace(raw)

	if code == "" {
		return Scan{Kind: ScanEmpty}
	}

	for _, word := range tokens.ExitWords {
		if strings.EqualFold(code, word) {
			return Scan{Kind: ScanExit, Code: code}
		}
	}

	switch code {
	case tokens.Add:
		return Scan{Kind: ScanAddMode, Code: code}
	case tokens.Remove:
		return Scan{Kind: ScanRemoveMode, Code: code}
	case tokens.Multi:
		return Scan{Kind: ScanQuantityToggle, Code: code}
	case tokens.Undo:
		return Scan{Kind: ScanUndo, Code: code}
	}

	return Scan{Kind: ScanProduct, Code: code}
}
