package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warelog/skaner/internal/config"
	"github.com/warelog/skaner/internal/domain/models"
	"github.com/warelog/skaner/internal/ledger"
	"github.com/warelog/skaner/internal/service/inventory"
	"github.com/warelog/skaner/internal/service/stock"
	"github.com/warelog/skaner/pkg/notifier"
)

// Prompter supplies the two blocking operator inputs a product scan can need.
// Injecting it keeps the interpreter testable without a live terminal.
type Prompter interface {
	Quantity(productName string) (string, error)
	Confirm(question string) (string, error)
}

// Interpreter is the top-level controller: it classifies each scan, drives
// quantity resolution, invokes the transaction engine, owns the history
// ledger and triggers notifier events. It processes strictly one scan at a
// time and is not safe for concurrent use.
type Interpreter struct {
	tokens    models.Tokens
	triggers  map[string]int
	inventory inventory.Lookup
	engine    stock.TransactionEngine
	ledger    *ledger.Ledger
	notifier  notifier.Notifier
	prompter  Prompter
	out       io.Writer
	logger    *zap.Logger
	now       func() time.Time

	mode         models.Mode
	quantityMode models.QuantityMode
}

// NewInterpreter wires the scan interpreter with its collaborators.
func NewInterpreter(
	cfg config.ScannerConfig,
	lookup inventory.Lookup,
	engine stock.TransactionEngine,
	history *ledger.Ledger,
	notif notifier.Notifier,
	prompter Prompter,
	out io.Writer,
	logger *zap.Logger,
) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{
		tokens: models.Tokens{
			Add:       cfg.AddToken,
			Remove:    cfg.RemoveToken,
			Multi:     cfg.MultiToken,
			Undo:      cfg.UndoToken,
			ExitWords: cfg.ExitWords,
		},
		triggers:  cfg.ProductionTriggers,
		inventory: lookup,
		engine:    engine,
		ledger:    history,
		notifier:  notif,
		prompter:  prompter,
		out:       out,
		logger:    logger,
		now:       time.Now,
	}
}

// Mode reports the current stock direction mode.
func (i *Interpreter) Mode() models.Mode { return i.mode }

// QuantityMode reports the current quantity resolution mode.
func (i *Interpreter) QuantityMode() models.QuantityMode { return i.quantityMode }

// HistorySize reports the number of undoable operations.
func (i *Interpreter) HistorySize() int { return i.ledger.Len() }

// ProcessScan handles one scanned line end to end. A panic anywhere in scan
// handling is recovered and logged so a single scan cannot crash the session.
func (i *Interpreter) ProcessScan(ctx context.Context, raw string) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("scan processing panicked", zap.Any("panic", r), zap.String("raw", raw))
			i.printf("unexpected error while processing scan")
		}
	}()

	scan := models.ClassifyScan(raw, i.tokens)

	switch scan.Kind {
	case models.ScanEmpty, models.ScanExit:
		return
	case models.ScanAddMode:
		i.mode = models.ModeAdd
		i.printf("mode: ADD items")
		i.notifier.Notify(notifier.TagAddMode)
	case models.ScanRemoveMode:
		i.mode = models.ModeRemove
		i.printf("mode: REMOVE items")
		i.notifier.Notify(notifier.TagRemoveMode)
	case models.ScanQuantityToggle:
		i.toggleQuantityMode()
	case models.ScanUndo:
		i.Undo(ctx)
	case models.ScanProduct:
		i.handleProductScan(ctx, scan.Code)
	}
}

func (i *Interpreter) toggleQuantityMode() {
	if i.quantityMode == models.QuantitySingle {
		i.quantityMode = models.QuantityMulti
		i.printf("MULTI mode: quantity will be asked per scan")
		i.notifier.Notify(notifier.TagMultiMode)
		return
	}
	i.quantityMode = models.QuantitySingle
	i.printf("SINGLE mode: one unit per scan")
	i.notifier.Notify(notifier.TagSingleMode)
}

func (i *Interpreter) handleProductScan(ctx context.Context, barcode string) {
	if i.mode == models.ModeUnset {
		i.printf("mode not set, scan a mode barcode first")
		return
	}

	product, err := i.inventory.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			i.printf("no product with barcode %s", barcode)
		} else {
			i.printf("product lookup failed: %v", err)
		}
		return
	}

	quantity, ok := i.resolveQuantity(product)
	if !ok {
		return
	}

	switch i.mode {
	case models.ModeAdd:
		i.handleAdd(ctx, product, barcode, quantity)
	case models.ModeRemove:
		i.handleRemove(ctx, product, quantity)
	}
}

// resolveQuantity applies the quantity-mode policy: single means one unit,
// multi blocks for operator input. An invalid answer consumes the scan; there
// is no retry loop.
func (i *Interpreter) resolveQuantity(product *models.Product) (float64, bool) {
	if i.quantityMode == models.QuantitySingle {
		i.printf("%s - quantity: 1 (available: %g)", product.Name, product.QtyAvailable)
		return 1, true
	}

	answer, err := i.prompter.Quantity(product.Name)
	if err != nil {
		i.printf("quantity input failed: %v", err)
		return 0, false
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil {
		i.printf("invalid quantity %q", answer)
		return 0, false
	}
	if quantity <= 0 {
		i.printf("quantity must be greater than 0")
		return 0, false
	}

	return quantity, true
}

func (i *Interpreter) handleAdd(ctx context.Context, product *models.Product, barcode string, quantity float64) {
	if bomID, isProduction := i.triggers[barcode]; isProduction {
		productionID, err := i.engine.CreateProductionOrder(ctx, product, bomID, quantity, i.inventory.DefaultLocationID())
		if err != nil {
			i.printf("production order failed: %v", err)
			return
		}

		i.record(models.OpProductionOrder, productionID, product.Name, quantity)
		i.printf("production started: %g x %s", quantity, product.Name)
		i.notifyAdded(quantity)
		return
	}

	pickingID, err := i.engine.CreateStockMove(ctx, product, quantity, stock.DirectionIn, i.inventory.DefaultLocationID())
	if err != nil {
		i.printf("receipt failed: %v", err)
		return
	}

	i.record(models.OpReceiptMove, pickingID, product.Name, quantity)
	i.printf("added %g x %s", quantity, product.Name)
	i.notifyAdded(quantity)
}

func (i *Interpreter) handleRemove(ctx context.Context, product *models.Product, quantity float64) {
	if product.QtyAvailable < quantity {
		question := fmt.Sprintf("only %g of %s available, continue anyway?", product.QtyAvailable, product.Name)
		answer, err := i.prompter.Confirm(question)
		if err != nil || !isAffirmative(answer) {
			i.printf("removal aborted")
			return
		}
	}

	pickingID, err := i.engine.CreateStockMove(ctx, product, quantity, stock.DirectionOut, i.inventory.DefaultLocationID())
	if err != nil {
		i.printf("issue failed: %v", err)
		return
	}

	i.record(models.OpIssueMove, pickingID, product.Name, quantity)
	i.printf("removed %g x %s", quantity, product.Name)
	if quantity == 1 {
		i.notifier.Notify(notifier.TagRemovedOne)
	} else {
		i.notifier.Notify(notifier.TagRemovedMany)
	}
}

// Undo pops the newest ledger record and reverses it in the backend. When the
// reversal itself fails the record is restored, leaving the ledger unchanged.
func (i *Interpreter) Undo(ctx context.Context) {
	record, ok := i.ledger.PopLast()
	if !ok {
		i.printf("nothing to undo")
		return
	}

	if err := i.engine.Undo(ctx, record); err != nil {
		i.ledger.Restore(record)
		i.printf("undo failed: %v", err)
		return
	}

	i.printf("undone %s of %g x %s, %d operations left",
		record.Kind, record.Quantity, record.ProductName, i.ledger.Len())
}

func (i *Interpreter) record(kind models.OperationKind, backendID int, productName string, quantity float64) {
	i.ledger.Append(models.OperationRecord{
		Kind:        kind,
		BackendID:   backendID,
		ProductName: productName,
		Quantity:    quantity,
		Timestamp:   i.now(),
	})
}

func (i *Interpreter) notifyAdded(quantity float64) {
	if quantity == 1 {
		i.notifier.Notify(notifier.TagAddedOne)
		return
	}
	i.notifier.Notify(notifier.TagAddedMany)
}

func (i *Interpreter) printf(format string, args ...any) {
	fmt.Fprintf(i.out, format+"\n", args...)
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "t", "tak", "y", "yes":
		return true
	}
	return false
}
