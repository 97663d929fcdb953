package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/ports"
)

// Postgres-backed implementation of the TrackingSource port.
type PostgresTrackingSource struct{ DB *sql.DB }

func NewPostgresTrackingSource(db *sql.DB) *PostgresTrackingSource {
	return &PostgresTrackingSource{DB: db}
}

func (s *PostgresTrackingSource) GetByContainer(ctx context.Context, containerNumber string) ports.Result[domain.Tracking] {
	if s.DB == nil {
		return ports.Failed[domain.Tracking](errors.New("postgres tracking source: DB is nil"))
	}

	query := `
	SELECT
		container_number,
		scac,
		estimated_arrival,
		actual_arrival,
		delay_reasons,
		port_lat,
		port_lon,
		port_name
	FROM trackings
	WHERE container_number = $1;
	`

	var (
		tracking domain.Tracking
		reasons  []byte
		portLat  sql.NullFloat64
		portLon  sql.NullFloat64
		portName sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, query, containerNumber).Scan(
		&tracking.ContainerNumber,
		&tracking.SCAC,
		&tracking.EstimatedArrival,
		&tracking.ActualArrival,
		&reasons,
		&portLat,
		&portLon,
		&portName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.NotFound[domain.Tracking]()
	}
	if err != nil {
		return ports.Failed[domain.Tracking](fmt.Errorf("get tracking: query trackings table: %w", err))
	}

	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &tracking.DelayReasons); err != nil {
			return ports.Failed[domain.Tracking](fmt.Errorf("get tracking: parse delay_reasons: %w", err))
		}
	}

	if portLat.Valid && portLon.Valid {
		tracking.DestinationPort = &domain.GeoLocation{
			Latitude:  portLat.Float64,
			Longitude: portLon.Float64,
			Name:      portName.String,
		}
	}

	return ports.Found(tracking)
}
