package stock_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warelog/skaner/internal/config"
	"github.com/warelog/skaner/internal/domain/models"
	"github.com/warelog/skaner/internal/service/stock"
)

type rpcCall struct {
	model  string
	method string
	args   []any
}

func (c rpcCall) key() string { return c.model + "." + c.method }

// fakeClient records every ExecuteKw call and serves canned results. The fail
// hook lets tests inject failures for specific steps.
type fakeClient struct {
	calls []rpcCall
	fail  func(model, method string, args []any) error
}

func (f *fakeClient) Authenticate(context.Context) (int, error) { return 1, nil }

func (f *fakeClient) Version(context.Context) (string, error) { return "17.0", nil }

func (f *fakeClient) ExecuteKw(_ context.Context, model, method string, args []any, _ map[string]any) (any, error) {
	f.calls = append(f.calls, rpcCall{model: model, method: method, args: args})

	if f.fail != nil {
		if err := f.fail(model, method, args); err != nil {
			return nil, err
		}
	}

	switch {
	case method == "create":
		return float64(500 + len(f.calls)), nil
	case model == "product.product" && method == "read":
		return []any{map[string]any{
			"name":   "Widget",
			"uom_id": []any{float64(3), "Units"},
		}}, nil
	case model == "stock.location" && method == "search":
		return []any{float64(7)}, nil
	case model == "stock.picking.type" && method == "search":
		return []any{float64(4)}, nil
	case model == "stock.move" && method == "search":
		return []any{float64(31), float64(32)}, nil
	default:
		return true, nil
	}
}

func (f *fakeClient) keys() []string {
	keys := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		keys = append(keys, call.key())
	}
	return keys
}

// failSteps builds a fail hook that rejects the listed model.method keys. A
// key suffixed with "#done" only matches write calls setting state=done.
func failSteps(keys ...string) func(model, method string, args []any) error {
	failed := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		failed[key] = struct{}{}
	}

	return func(model, method string, args []any) error {
		key := model + "." + method
		if method == "write" {
			if vals, ok := args[len(args)-1].(map[string]any); ok {
				if state, _ := vals["state"].(string); state != "" {
					if _, ok := failed[key+"#"+state]; ok {
						return fmt.Errorf("simulated failure on %s state %s", key, state)
					}
				}
			}
			return nil
		}
		if _, ok := failed[key]; ok {
			return fmt.Errorf("simulated failure on %s", key)
		}
		return nil
	}
}

func testEngine(client *fakeClient) *stock.Engine {
	cfg := config.ScannerConfig{
		FallbackSupplierLocationID: 8,
		FallbackCustomerLocationID: 9,
		FallbackPickingTypeID:      1,
	}
	return stock.NewEngine(client, cfg, nil)
}

func widget() *models.Product {
	return &models.Product{ID: 42, Name: "Widget", Barcode: "12345", UoMID: 3, QtyAvailable: 5}
}

func TestCreateStockMoveReceiptSequence(t *testing.T) {
	client := &fakeClient{}
	engine := testEngine(client)

	pickingID, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 12)
	require.NoError(t, err)
	assert.Greater(t, pickingID, 0)

	assert.Equal(t, []string{
		"stock.location.search",
		"stock.picking.type.search",
		"product.product.read",
		"stock.picking.create",
		"stock.move.create",
		"stock.picking.action_confirm",
		"stock.move.write",
		"stock.move._action_done",
	}, client.keys())
}

func TestCreateStockMoveIssueUsesWarehouseAsSource(t *testing.T) {
	client := &fakeClient{}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 2, stock.DirectionOut, 12)
	require.NoError(t, err)

	var pickingVals map[string]any
	for _, call := range client.calls {
		if call.key() == "stock.picking.create" {
			pickingVals = call.args[0].(map[string]any)
		}
	}
	require.NotNil(t, pickingVals)
	assert.Equal(t, 12, pickingVals["location_id"])
	assert.Equal(t, 7, pickingVals["location_dest_id"])
}

func TestCreateStockMoveFallsBackToHardcodedLocation(t *testing.T) {
	client := &fakeClient{fail: failSteps("stock.location.search")}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 12)
	require.NoError(t, err)

	var pickingVals map[string]any
	for _, call := range client.calls {
		if call.key() == "stock.picking.create" {
			pickingVals = call.args[0].(map[string]any)
		}
	}
	require.NotNil(t, pickingVals)
	assert.Equal(t, 8, pickingVals["location_id"], "supplier search failure falls back to the hard-coded id")
}

func TestCreateStockMoveWithoutLocationFails(t *testing.T) {
	client := &fakeClient{}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 0)
	require.ErrorIs(t, err, stock.ErrNoDefaultLocation)
	assert.Empty(t, client.calls, "no backend call may happen without a location")
}

func TestFinalizeFallsBackThroughChain(t *testing.T) {
	client := &fakeClient{fail: failSteps("stock.move._action_done", "stock.move.action_done")}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 12)
	require.NoError(t, err)
	assert.Contains(t, client.keys(), "stock.picking.button_validate")
}

func TestFinalizeChainExhaustedIsHardFailure(t *testing.T) {
	client := &fakeClient{fail: failSteps(
		"stock.move._action_done",
		"stock.move.action_done",
		"stock.picking.button_validate",
		"stock.picking.write#done",
	)}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 12)
	require.Error(t, err, "an exhausted finalize chain must fail the transaction")
	assert.Contains(t, err.Error(), "all fallbacks exhausted")
}

func TestCreateStockMoveConfirmFailureAborts(t *testing.T) {
	client := &fakeClient{fail: failSteps("stock.picking.action_confirm")}
	engine := testEngine(client)

	_, err := engine.CreateStockMove(context.Background(), widget(), 1, stock.DirectionIn, 12)
	require.Error(t, err)
	assert.NotContains(t, client.keys(), "stock.move._action_done")
}

func TestProductionOrderSequence(t *testing.T) {
	client := &fakeClient{}
	engine := testEngine(client)

	productionID, err := engine.CreateProductionOrder(context.Background(), widget(), 1, 2, 12)
	require.NoError(t, err)
	assert.Greater(t, productionID, 0)

	assert.Equal(t, []string{
		"product.product.read",
		"mrp.production.create",
		"mrp.production.action_confirm",
		"mrp.production.action_assign",
		"mrp.production.button_plan",
		"mrp.production.button_mark_done",
	}, client.keys())
}

func TestProductionConfirmFailureIsFatal(t *testing.T) {
	client := &fakeClient{fail: failSteps("mrp.production.action_confirm")}
	engine := testEngine(client)

	_, err := engine.CreateProductionOrder(context.Background(), widget(), 1, 1, 12)
	require.Error(t, err)
	assert.NotContains(t, client.keys(), "mrp.production.action_assign")
}

func TestProductionAssignFailureIsRecoverable(t *testing.T) {
	client := &fakeClient{fail: failSteps("mrp.production.action_assign")}
	engine := testEngine(client)

	_, err := engine.CreateProductionOrder(context.Background(), widget(), 1, 1, 12)
	require.NoError(t, err)
	assert.Contains(t, client.keys(), "mrp.production.button_mark_done")
}

func TestProductionStartFallsBackToForcedState(t *testing.T) {
	client := &fakeClient{fail: failSteps("mrp.production.button_plan")}
	engine := testEngine(client)

	_, err := engine.CreateProductionOrder(context.Background(), widget(), 1, 1, 12)
	require.NoError(t, err)
	assert.Contains(t, client.keys(), "mrp.production.write")
}

func TestProductionMarkDoneFailureStillSucceeds(t *testing.T) {
	client := &fakeClient{fail: failSteps("mrp.production.button_mark_done")}
	engine := testEngine(client)

	productionID, err := engine.CreateProductionOrder(context.Background(), widget(), 1, 1, 12)
	require.NoError(t, err, "an unfinished order is still a recorded transaction")
	assert.Greater(t, productionID, 0)
}

func TestUndoProductionFallsBackToForcedCancel(t *testing.T) {
	client := &fakeClient{fail: failSteps("mrp.production.action_cancel")}
	engine := testEngine(client)

	err := engine.Undo(context.Background(), models.OperationRecord{
		Kind:      models.OpProductionOrder,
		BackendID: 77,
	})
	require.NoError(t, err)
	assert.Contains(t, client.keys(), "mrp.production.write")
}

func TestUndoPickingCancelsDocument(t *testing.T) {
	client := &fakeClient{}
	engine := testEngine(client)

	err := engine.Undo(context.Background(), models.OperationRecord{
		Kind:      models.OpReceiptMove,
		BackendID: 88,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stock.picking.action_cancel"}, client.keys())
}

func TestUndoPickingForcedCancelWritesMoves(t *testing.T) {
	client := &fakeClient{fail: failSteps("stock.picking.action_cancel")}
	engine := testEngine(client)

	err := engine.Undo(context.Background(), models.OperationRecord{
		Kind:      models.OpIssueMove,
		BackendID: 88,
	})
	require.NoError(t, err)
	assert.Contains(t, client.keys(), "stock.picking.write")
	assert.Contains(t, client.keys(), "stock.move.search")
	assert.Contains(t, client.keys(), "stock.move.write")
}

func TestUndoFailurePropagates(t *testing.T) {
	client := &fakeClient{fail: func(model, method string, _ []any) error {
		return errors.New("backend down")
	}}
	engine := testEngine(client)

	err := engine.Undo(context.Background(), models.OperationRecord{
		Kind:      models.OpProductionOrder,
		BackendID: 77,
	})
	require.Error(t, err)
}
