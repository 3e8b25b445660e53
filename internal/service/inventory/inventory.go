package inventory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/warelog/skaner/internal/domain/models"
	"github.com/warelog/skaner/pkg/clients/odoo"
)

// ErrProductNotFound indicates no product matched the scanned barcode. Backend
// errors during lookup are logged and collapsed into this sentinel so a flaky
// connection only costs the current scan.
var ErrProductNotFound = errors.New("product not found")

// Lookup is the read surface the scan interpreter consumes.
type Lookup interface {
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	DefaultLocationID() int
}

// Service resolves scanned codes to products and their on-hand quantity at
// the session's default storage location.
type Service struct {
	client     odoo.Client
	logger     *zap.Logger
	locationID int
}

// NewService wires an inventory lookup service.
func NewService(client odoo.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// ResolveDefaultLocation picks the first internal-usage storage location as
// the session default. Absence is a non-fatal condition: the scanner keeps
// running but every transaction requiring the location will fail.
func (s *Service) ResolveDefaultLocation(ctx context.Context) error {
	result, err := s.client.ExecuteKw(ctx, "stock.location", "search_read",
		[]any{[]any{[]any{"usage", "=", "internal"}}},
		map[string]any{"fields": []string{"id", "name"}, "limit": 1})
	if err != nil {
		return err
	}

	locations, err := odoo.Records(result)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return errors.New("no internal storage location found")
	}

	id, err := odoo.Int(locations[0]["id"])
	if err != nil {
		return err
	}

	s.locationID = id
	s.logger.Info("default location resolved",
		zap.Int("location_id", id),
		zap.String("name", odoo.String(locations[0]["name"])))
	return nil
}

// DefaultLocationID reports the resolved location, zero when resolution
// failed.
func (s *Service) DefaultLocationID() int {
	return s.locationID
}

// FindByBarcode resolves a barcode to a product with its current availability
// at the default location. Availability is summed across all on-hand quantity
// records and is always fetched fresh: concurrent external stock changes must
// be visible to the next remove-mode check.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	result, err := s.client.ExecuteKw(ctx, "product.product", "search_read",
		[]any{[]any{[]any{"barcode", "=", barcode}}},
		map[string]any{"fields": []string{"id", "name", "barcode", "uom_id"}})
	if err != nil {
		s.logger.Error("product lookup failed", zap.String("barcode", barcode), zap.Error(err))
		return nil, ErrProductNotFound
	}

	records, err := odoo.Records(result)
	if err != nil {
		s.logger.Error("unexpected product payload", zap.String("barcode", barcode), zap.Error(err))
		return nil, ErrProductNotFound
	}
	if len(records) == 0 {
		return nil, ErrProductNotFound
	}

	record := records[0]
	id, err := odoo.Int(record["id"])
	if err != nil {
		s.logger.Error("unexpected product id", zap.String("barcode", barcode), zap.Error(err))
		return nil, ErrProductNotFound
	}

	product := &models.Product{
		ID:      id,
		Name:    odoo.String(record["name"]),
		Barcode: barcode,
	}
	if uomID, ok := odoo.RelationID(record["uom_id"]); ok {
		product.UoMID = uomID
	}

	qty, err := s.sumAvailableQuantity(ctx, id)
	if err != nil {
		s.logger.Error("availability lookup failed", zap.String("barcode", barcode), zap.Error(err))
		return nil, ErrProductNotFound
	}
	product.QtyAvailable = qty

	return product, nil
}

func (s *Service) sumAvailableQuantity(ctx context.Context, productID int) (float64, error) {
	result, err := s.client.ExecuteKw(ctx, "stock.quant", "search_read",
		[]any{[]any{
			[]any{"product_id", "=", productID},
			[]any{"location_id", "=", s.locationID},
		}},
		map[string]any{"fields": []string{"quantity"}})
	if err != nil {
		return 0, err
	}

	quants, err := odoo.Records(result)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, quant := range quants {
		total += odoo.Float(quant["quantity"])
	}
	return total, nil
}
