package ports

import (
	"context"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Port: a boundary for retrieving shipments from the shipment-management
// system. Implementations must report "not found" through the result
// state, never as an error.
type ShipmentSource interface {
	// Look up one shipment by its identifier.
	GetByID(ctx context.Context, shipmentID string) Result[domain.Shipment]
}
