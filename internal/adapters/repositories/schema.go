package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// InitSchema creates the shipment, container and tracking tables.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createShipmentsQuery := `
	CREATE TABLE IF NOT EXISTS shipments (
		shipment_id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		shipper_name TEXT NOT NULL
	);
	`

	createContainersQuery := `
	CREATE TABLE IF NOT EXISTS containers (
		container_number TEXT PRIMARY KEY,
		shipment_id TEXT NOT NULL REFERENCES shipments(shipment_id) ON DELETE CASCADE
	);
	`

	createTrackingsQuery := `
	CREATE TABLE IF NOT EXISTS trackings (
		container_number TEXT PRIMARY KEY,
		scac TEXT NOT NULL,
		estimated_arrival TIMESTAMPTZ NOT NULL,
		actual_arrival TIMESTAMPTZ,
		delay_reasons JSONB NOT NULL DEFAULT '[]',
		port_lat DOUBLE PRECISION,
		port_lon DOUBLE PRECISION,
		port_name TEXT
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_containers_shipment_id
	ON containers(shipment_id);
	`

	statements := []string{
		createShipmentsQuery,
		createContainersQuery,
		createTrackingsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ShipmentSeed struct {
	ShipmentID   string `json:"shipment_id"`
	CustomerName string `json:"customer_name"`
	ShipperName  string `json:"shipper_name"`
	Containers   []struct {
		ContainerNumber string `json:"container_number"`
	} `json:"containers"`
}

type TrackingSeed struct {
	ContainerNumber  string              `json:"container_number"`
	SCAC             string              `json:"scac"`
	EstimatedArrival time.Time           `json:"estimated_arrival"`
	ActualArrival    *time.Time          `json:"actual_arrival"`
	DelayReasons     []string            `json:"delay_reasons"`
	DestinationPort  *domain.GeoLocation `json:"destination_port"`
}

type SeedFile struct {
	Shipments []ShipmentSeed `json:"shipments"`
	Trackings []TrackingSeed `json:"trackings"`
}

// SeedFromJSON loads shipment and tracking data from a JSON file into
// the database, replacing rows that already exist.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed data: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed data: parse json: %w", err)
	}

	for i, s := range data.Shipments {
		if strings.TrimSpace(s.ShipmentID) == "" {
			return fmt.Errorf("seed data: shipment at index %d: shipment_id cannot be empty", i+1)
		}
	}
	for i, t := range data.Trackings {
		if strings.TrimSpace(t.ContainerNumber) == "" {
			return fmt.Errorf("seed data: tracking at index %d: container_number cannot be empty", i+1)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed data: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	shipmentQuery := `
	INSERT INTO shipments (shipment_id, customer_name, shipper_name)
	VALUES ($1, $2, $3)
	ON CONFLICT (shipment_id) DO UPDATE
	SET customer_name = EXCLUDED.customer_name,
	    shipper_name = EXCLUDED.shipper_name;
	`
	containerQuery := `
	INSERT INTO containers (container_number, shipment_id)
	VALUES ($1, $2)
	ON CONFLICT (container_number) DO UPDATE
	SET shipment_id = EXCLUDED.shipment_id;
	`
	for _, s := range data.Shipments {
		if _, err := tx.ExecContext(ctx, shipmentQuery, s.ShipmentID, s.CustomerName, s.ShipperName); err != nil {
			return fmt.Errorf("seed data: insert shipment_id=%s: %w", s.ShipmentID, err)
		}
		for _, ct := range s.Containers {
			if _, err := tx.ExecContext(ctx, containerQuery, ct.ContainerNumber, s.ShipmentID); err != nil {
				return fmt.Errorf("seed data: insert container_number=%s: %w", ct.ContainerNumber, err)
			}
		}
	}

	trackingQuery := `
	INSERT INTO trackings (
		container_number, scac, estimated_arrival, actual_arrival,
		delay_reasons, port_lat, port_lon, port_name
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (container_number) DO UPDATE
	SET scac = EXCLUDED.scac,
	    estimated_arrival = EXCLUDED.estimated_arrival,
	    actual_arrival = EXCLUDED.actual_arrival,
	    delay_reasons = EXCLUDED.delay_reasons,
	    port_lat = EXCLUDED.port_lat,
	    port_lon = EXCLUDED.port_lon,
	    port_name = EXCLUDED.port_name;
	`
	for _, t := range data.Trackings {
		reasons, err := json.Marshal(t.DelayReasons)
		if err != nil {
			return fmt.Errorf("seed data: encode delay_reasons for %s: %w", t.ContainerNumber, err)
		}

		var portLat, portLon any
		var portName any
		if t.DestinationPort != nil {
			portLat = t.DestinationPort.Latitude
			portLon = t.DestinationPort.Longitude
			portName = t.DestinationPort.Name
		}

		if _, err := tx.ExecContext(ctx, trackingQuery,
			t.ContainerNumber, t.SCAC, t.EstimatedArrival, t.ActualArrival,
			reasons, portLat, portLon, portName,
		); err != nil {
			return fmt.Errorf("seed data: insert container_number=%s: %w", t.ContainerNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed data: commit tx: %w", err)
	}

	return nil
}
