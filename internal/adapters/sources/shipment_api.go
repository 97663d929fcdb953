package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/platform/obs"
	"github.com/ItaiMaoz/wnwd/internal/ports"
	"github.com/ItaiMaoz/wnwd/internal/retry"
)

// ShipmentAPIClient implements the ShipmentSource port against the
// shipment-management system's HTTP API. Safe for concurrent use.
type ShipmentAPIClient struct {
	session *http.Client
	baseURL string
	apiKey  string
	policy  retry.Policy
	dataset memoizedDataset[domain.Shipment]
}

func NewShipmentAPIClient(baseURL, apiKey string, policy retry.Policy) (*ShipmentAPIClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("shipment api: base url is empty")
	}

	c := &ShipmentAPIClient{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		policy:  policy,
	}
	c.dataset.fetch = c.fetchAll
	return c, nil
}

// GetByID looks one shipment up in the memoized dataset.
func (c *ShipmentAPIClient) GetByID(ctx context.Context, shipmentID string) ports.Result[domain.Shipment] {
	data, err := c.dataset.get(ctx)
	if err != nil {
		return ports.Failed[domain.Shipment](fmt.Errorf("load shipments: %w", err))
	}

	shipment, ok := data[shipmentID]
	if !ok {
		return ports.NotFound[domain.Shipment]()
	}
	return ports.Found(shipment)
}

type shipmentPayload struct {
	ShipmentID   string `json:"shipment_id"`
	CustomerName string `json:"customer_name"`
	ShipperName  string `json:"shipper_name"`
	Containers   []struct {
		ContainerNumber string `json:"container_number"`
	} `json:"containers"`
}

func (c *ShipmentAPIClient) fetchAll(ctx context.Context) (_ map[string]domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.fetchAll")(&err)

	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/shipments", nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		return do(c.session, req)
	}, transient)
	if err != nil {
		return nil, fmt.Errorf("fetch shipments: %w", err)
	}
	defer resp.Body.Close()

	var decoded []shipmentPayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode shipments response: %w", err)
	}

	out := make(map[string]domain.Shipment, len(decoded))
	for _, p := range decoded {
		if strings.TrimSpace(p.ShipmentID) == "" {
			continue
		}

		containers := make([]domain.Container, 0, len(p.Containers))
		for _, ct := range p.Containers {
			containers = append(containers, domain.Container{ContainerNumber: ct.ContainerNumber})
		}

		out[p.ShipmentID] = domain.Shipment{
			ShipmentID:   p.ShipmentID,
			CustomerName: p.CustomerName,
			ShipperName:  p.ShipperName,
			Containers:   containers,
		}
	}

	return out, nil
}
