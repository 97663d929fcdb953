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

// TrackingAPIClient implements the TrackingSource port against the
// container-tracking system's HTTP API. Safe for concurrent use.
type TrackingAPIClient struct {
	session *http.Client
	baseURL string
	apiKey  string
	policy  retry.Policy
	dataset memoizedDataset[domain.Tracking]
}

func NewTrackingAPIClient(baseURL, apiKey string, policy retry.Policy) (*TrackingAPIClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("tracking api: base url is empty")
	}

	c := &TrackingAPIClient{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		policy:  policy,
	}
	c.dataset.fetch = c.fetchAll
	return c, nil
}

// GetByContainer looks one container up in the memoized dataset.
func (c *TrackingAPIClient) GetByContainer(ctx context.Context, containerNumber string) ports.Result[domain.Tracking] {
	data, err := c.dataset.get(ctx)
	if err != nil {
		return ports.Failed[domain.Tracking](fmt.Errorf("load trackings: %w", err))
	}

	tracking, ok := data[containerNumber]
	if !ok {
		return ports.NotFound[domain.Tracking]()
	}
	return ports.Found(tracking)
}

type trackingPayload struct {
	ContainerNumber  string     `json:"container_number"`
	SCAC             string     `json:"scac"`
	EstimatedArrival time.Time  `json:"estimated_arrival"`
	ActualArrival    *time.Time `json:"actual_arrival"`
	DelayReasons     []string   `json:"delay_reasons"`
	DestinationPort  *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
	} `json:"destination_port"`
}

func (c *TrackingAPIClient) fetchAll(ctx context.Context) (_ map[string]domain.Tracking, err error) {
	defer obs.Time(ctx, "trackings.fetchAll")(&err)

	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/trackings", nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		return do(c.session, req)
	}, transient)
	if err != nil {
		return nil, fmt.Errorf("fetch trackings: %w", err)
	}
	defer resp.Body.Close()

	var decoded []trackingPayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode trackings response: %w", err)
	}

	out := make(map[string]domain.Tracking, len(decoded))
	for _, p := range decoded {
		if strings.TrimSpace(p.ContainerNumber) == "" {
			continue
		}

		t := domain.Tracking{
			ContainerNumber:  p.ContainerNumber,
			SCAC:             p.SCAC,
			EstimatedArrival: p.EstimatedArrival,
			ActualArrival:    p.ActualArrival,
			DelayReasons:     p.DelayReasons,
		}
		if p.DestinationPort != nil {
			t.DestinationPort = &domain.GeoLocation{
				Latitude:  p.DestinationPort.Latitude,
				Longitude: p.DestinationPort.Longitude,
				Name:      p.DestinationPort.Name,
			}
		}
		out[p.ContainerNumber] = t
	}

	return out, nil
}
