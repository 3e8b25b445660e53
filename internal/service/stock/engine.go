package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warelog/skaner/internal/config"
	"github.com/warelog/skaner/internal/domain/models"
	"github.com/warelog/skaner/pkg/clients/odoo"
)

// Direction parameterizes a stock move: in for receipts, out for issues.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ErrNoDefaultLocation indicates the session never resolved a storage
// location, so no stock-changing transaction can proceed.
var ErrNoDefaultLocation = errors.New("no default storage location resolved")

// TransactionEngine executes the multi-step backend sequences that move
// stock, with layered per-step fallbacks, and reverses them for undo.
type TransactionEngine interface {
	CreateStockMove(ctx context.Context, product *models.Product, quantity float64, direction Direction, locationID int) (int, error)
	CreateProductionOrder(ctx context.Context, product *models.Product, bomID int, quantity float64, locationID int) (int, error)
	Undo(ctx context.Context, record models.OperationRecord) error
}

// Engine is the Odoo-backed TransactionEngine implementation.
type Engine struct {
	client odoo.Client
	cfg    config.ScannerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine wires a transaction engine.
func NewEngine(client odoo.Client, cfg config.ScannerConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// CreateProductionOrder records a manufacturing order: draft, confirm, assign
// components, start, complete. Confirmation failure is fatal; assignment and
// completion failures are not. A completion failure leaves the order open and
// requires manual completion in the backend, but the transaction still counts
// as succeeded.
func (e *Engine) CreateProductionOrder(ctx context.Context, product *models.Product, bomID int, quantity float64, locationID int) (int, error) {
	if locationID == 0 {
		return 0, ErrNoDefaultLocation
	}

	name, uomID, err := e.readProductInfo(ctx, product.ID)
	if err != nil {
		return 0, fmt.Errorf("read product %d: %w", product.ID, err)
	}

	created, err := e.client.ExecuteKw(ctx, "mrp.production", "create",
		[]any{map[string]any{
			"product_id":       product.ID,
			"product_qty":      quantity,
			"product_uom_id":   uomID,
			"bom_id":           bomID,
			"location_src_id":  locationID,
			"location_dest_id": locationID,
			"origin":           e.origin("Production"),
			"state":            "draft",
		}}, nil)
	if err != nil {
		return 0, fmt.Errorf("create production order: %w", err)
	}

	productionID, err := odoo.Int(created)
	if err != nil {
		return 0, fmt.Errorf("create production order: %w", err)
	}

	// Confirmation has no fallback; the whole transaction aborts here.
	if _, err := e.client.ExecuteKw(ctx, "mrp.production", "action_confirm", []any{productionID}, nil); err != nil {
		return 0, fmt.Errorf("confirm production order %d: %w", productionID, err)
	}

	if _, err := e.client.ExecuteKw(ctx, "mrp.production", "action_assign", []any{productionID}, nil); err != nil {
		e.logger.Warn("component assignment failed, continuing",
			zap.Int("production_id", productionID), zap.Error(err))
	}

	if err := e.runChain(ctx, "production start", []step{
		{"button_plan", func(ctx context.Context) error {
			_, err := e.client.ExecuteKw(ctx, "mrp.production", "button_plan", []any{productionID}, nil)
			return err
		}},
		{"force progress state", func(ctx context.Context) error {
			_, err := e.client.ExecuteKw(ctx, "mrp.production", "write",
				[]any{productionID, map[string]any{"state": "progress"}}, nil)
			return err
		}},
	}); err != nil {
		e.logger.Warn("could not start production order",
			zap.Int("production_id", productionID), zap.Error(err))
	}

	if _, err := e.client.ExecuteKw(ctx, "mrp.production", "button_mark_done", []any{productionID}, nil); err != nil {
		e.logger.Warn("production order left open, manual completion required",
			zap.Int("production_id", productionID),
			zap.String("product", name),
			zap.Error(err))
	}

	return productionID, nil
}

// CreateStockMove records a receipt or issue: a draft transfer document, its
// line-item move, confirmation, forced assignment, then a four-level finalize
// chain. Exhausting the finalize chain is a hard failure: the document exists
// in the backend but the transaction is reported failed and must not reach
// the history ledger.
func (e *Engine) CreateStockMove(ctx context.Context, product *models.Product, quantity float64, direction Direction, locationID int) (int, error) {
	if locationID == 0 {
		return 0, ErrNoDefaultLocation
	}

	var sourceLocation, destLocation, pickingType int
	var label string
	if direction == DirectionIn {
		sourceLocation = e.resolveLocation(ctx, "supplier", e.cfg.FallbackSupplierLocationID)
		destLocation = locationID
		pickingType = e.resolvePickingType(ctx, "incoming")
		label = "Receipt"
	} else {
		sourceLocation = locationID
		destLocation = e.resolveLocation(ctx, "customer", e.cfg.FallbackCustomerLocationID)
		pickingType = e.resolvePickingType(ctx, "outgoing")
		label = "Issue"
	}

	name, uomID, err := e.readProductInfo(ctx, product.ID)
	if err != nil {
		return 0, fmt.Errorf("read product %d: %w", product.ID, err)
	}

	created, err := e.client.ExecuteKw(ctx, "stock.picking", "create",
		[]any{map[string]any{
			"picking_type_id":  pickingType,
			"location_id":      sourceLocation,
			"location_dest_id": destLocation,
			"origin":           e.origin(label),
			"state":            "draft",
		}}, nil)
	if err != nil {
		return 0, fmt.Errorf("create picking: %w", err)
	}
	pickingID, err := odoo.Int(created)
	if err != nil {
		return 0, fmt.Errorf("create picking: %w", err)
	}

	created, err = e.client.ExecuteKw(ctx, "stock.move", "create",
		[]any{map[string]any{
			"name":             fmt.Sprintf("%s: %s", label, name),
			"product_id":       product.ID,
			"product_uom_qty":  quantity,
			"product_uom":      uomID,
			"picking_id":       pickingID,
			"location_id":      sourceLocation,
			"location_dest_id": destLocation,
			"state":            "draft",
		}}, nil)
	if err != nil {
		return 0, fmt.Errorf("create move line: %w", err)
	}
	moveID, err := odoo.Int(created)
	if err != nil {
		return 0, fmt.Errorf("create move line: %w", err)
	}

	if _, err := e.client.ExecuteKw(ctx, "stock.picking", "action_confirm", []any{pickingID}, nil); err != nil {
		return 0, fmt.Errorf("confirm picking %d: %w", pickingID, err)
	}

	if _, err := e.client.ExecuteKw(ctx, "stock.move", "write",
		[]any{moveID, map[string]any{"state": "assigned"}}, nil); err != nil {
		return 0, fmt.Errorf("assign move %d: %w", moveID, err)
	}

	if err := e.runChain(ctx, "move finalize", []step{
		{"move _action_done", func(ctx context.Context) error {
			_, err := e.client.ExecuteKw(ctx, "stock.move", "_action_done", []any{moveID}, nil)
			return err
		}},
		{"move action_done", func(ctx context.Context) error {
			_, err := e.client.ExecuteKw(ctx, "stock.move", "action_done", []any{moveID}, nil)
			return err
		}},
		{"picking button_validate", func(ctx context.Context) error {
			_, err := e.client.ExecuteKw(ctx, "stock.picking", "button_validate", []any{pickingID}, nil)
			return err
		}},
		{"force done states", func(ctx context.Context) error {
			if _, err := e.client.ExecuteKw(ctx, "stock.picking", "write",
				[]any{pickingID, map[string]any{"state": "done"}}, nil); err != nil {
				return err
			}
			_, err := e.client.ExecuteKw(ctx, "stock.move", "write",
				[]any{moveID, map[string]any{"state": "done"}}, nil)
			return err
		}},
	}); err != nil {
		return 0, err
	}

	return pickingID, nil
}

// Undo reverses a completed transaction via the backend's business-level
// cancel action, falling back to force-writing the cancelled state.
func (e *Engine) Undo(ctx context.Context, record models.OperationRecord) error {
	switch record.Kind {
	case models.OpProductionOrder:
		return e.runChain(ctx, "production cancel", []step{
			{"action_cancel", func(ctx context.Context) error {
				_, err := e.client.ExecuteKw(ctx, "mrp.production", "action_cancel", []any{record.BackendID}, nil)
				return err
			}},
			{"force cancel state", func(ctx context.Context) error {
				_, err := e.client.ExecuteKw(ctx, "mrp.production", "write",
					[]any{record.BackendID, map[string]any{"state": "cancel"}}, nil)
				return err
			}},
		})
	case models.OpReceiptMove, models.OpIssueMove:
		return e.runChain(ctx, "picking cancel", []step{
			{"action_cancel", func(ctx context.Context) error {
				_, err := e.client.ExecuteKw(ctx, "stock.picking", "action_cancel", []any{record.BackendID}, nil)
				return err
			}},
			{"force cancel states", func(ctx context.Context) error {
				return e.forceCancelPicking(ctx, record.BackendID)
			}},
		})
	default:
		return fmt.Errorf("unknown operation kind %q", record.Kind)
	}
}

// forceCancelPicking writes the cancelled state onto the transfer document
// and each of its move lines.
func (e *Engine) forceCancelPicking(ctx context.Context, pickingID int) error {
	if _, err := e.client.ExecuteKw(ctx, "stock.picking", "write",
		[]any{pickingID, map[string]any{"state": "cancel"}}, nil); err != nil {
		return err
	}

	result, err := e.client.ExecuteKw(ctx, "stock.move", "search",
		[]any{[]any{[]any{"picking_id", "=", pickingID}}}, nil)
	if err != nil {
		return err
	}
	moveIDs, err := odoo.IDs(result)
	if err != nil || len(moveIDs) == 0 {
		return err
	}

	_, err = e.client.ExecuteKw(ctx, "stock.move", "write",
		[]any{moveIDs, map[string]any{"state": "cancel"}}, nil)
	return err
}

func (e *Engine) readProductInfo(ctx context.Context, productID int) (string, int, error) {
	result, err := e.client.ExecuteKw(ctx, "product.product", "read",
		[]any{[]int{productID}},
		map[string]any{"fields": []string{"name", "uom_id"}})
	if err != nil {
		return "", 0, err
	}

	records, err := odoo.Records(result)
	if err != nil {
		return "", 0, err
	}
	if len(records) == 0 {
		return "", 0, fmt.Errorf("product %d not readable", productID)
	}

	name := odoo.String(records[0]["name"])
	uomID, ok := odoo.RelationID(records[0]["uom_id"])
	if !ok {
		uomID = 1
	}
	return name, uomID, nil
}

// resolveLocation searches for a location by usage, falling back to the
// configured hard-coded id when the search yields nothing or fails.
func (e *Engine) resolveLocation(ctx context.Context, usage string, fallback int) int {
	result, err := e.client.ExecuteKw(ctx, "stock.location", "search",
		[]any{[]any{[]any{"usage", "=", usage}}},
		map[string]any{"limit": 1})
	if err != nil {
		e.logger.Debug("location search failed, using fallback",
			zap.String("usage", usage), zap.Int("fallback", fallback), zap.Error(err))
		return fallback
	}

	ids, err := odoo.IDs(result)
	if err != nil || len(ids) == 0 {
		return fallback
	}
	return ids[0]
}

func (e *Engine) resolvePickingType(ctx context.Context, code string) int {
	fallback := e.cfg.FallbackPickingTypeID
	result, err := e.client.ExecuteKw(ctx, "stock.picking.type", "search",
		[]any{[]any{[]any{"code", "=", code}}},
		map[string]any{"limit": 1})
	if err != nil {
		e.logger.Debug("picking type search failed, using fallback",
			zap.String("code", code), zap.Int("fallback", fallback), zap.Error(err))
		return fallback
	}

	ids, err := odoo.IDs(result)
	if err != nil || len(ids) == 0 {
		return fallback
	}
	return ids[0]
}

func (e *Engine) origin(label string) string {
	return fmt.Sprintf("Scanner - %s - %s", label, e.now().Format("2006-01-02 15:04:05"))
}
