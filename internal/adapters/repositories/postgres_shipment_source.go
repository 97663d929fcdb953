// Package repositories implements the shipment and tracking source
// ports against Postgres, for deployments that sync both upstream
// systems into a local database instead of calling them per run.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/ports"
)

// Postgres-backed implementation of the ShipmentSource port.
type PostgresShipmentSource struct{ DB *sql.DB }

func NewPostgresShipmentSource(db *sql.DB) *PostgresShipmentSource {
	return &PostgresShipmentSource{DB: db}
}

func (s *PostgresShipmentSource) GetByID(ctx context.Context, shipmentID string) ports.Result[domain.Shipment] {
	if s.DB == nil {
		return ports.Failed[domain.Shipment](errors.New("postgres shipment source: DB is nil"))
	}

	query := `
	SELECT
		shipment_id,
		customer_name,
		shipper_name
	FROM shipments
	WHERE shipment_id = $1;
	`
	var shipment domain.Shipment
	err := s.DB.QueryRowContext(ctx, query, shipmentID).
		Scan(&shipment.ShipmentID, &shipment.CustomerName, &shipment.ShipperName)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.NotFound[domain.Shipment]()
	}
	if err != nil {
		return ports.Failed[domain.Shipment](fmt.Errorf("get shipment: query shipments table: %w", err))
	}

	containers, err := s.listContainers(ctx, shipmentID)
	if err != nil {
		return ports.Failed[domain.Shipment](err)
	}
	shipment.Containers = containers

	return ports.Found(shipment)
}

func (s *PostgresShipmentSource) listContainers(ctx context.Context, shipmentID string) ([]domain.Container, error) {
	query := `
	SELECT
		container_number
	FROM containers
	WHERE shipment_id = $1
	ORDER BY container_number;
	`
	rows, err := s.DB.QueryContext(ctx, query, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("get shipment: query containers table: %w", err)
	}
	defer rows.Close()

	containers := make([]domain.Container, 0, 4)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("get shipment: scan container row: %w", err)
		}
		containers = append(containers, domain.Container{ContainerNumber: number})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get shipment: container row iteration: %w", err)
	}

	return containers, nil
}
