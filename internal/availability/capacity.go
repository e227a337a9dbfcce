package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"

	"github.com/go-redis/redis/v8"
)

// CapacityClient queries the capacity service over HTTP.
type CapacityClient struct {
	baseURL string
	client  *http.Client
}

func NewCapacityClient(baseURL string, client *http.Client) *CapacityClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CapacityClient{baseURL: baseURL, client: client}
}

func (c *CapacityClient) GetAvailability(ctx context.Context, experienceType, date string) ([]models.CapacitySlot, error) {
	u := fmt.Sprintf("%s/api/v1/capacity?experience_type=%s&date=%s",
		c.baseURL, url.QueryEscape(experienceType), url.QueryEscape(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capacity service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capacity service returned status %d", resp.StatusCode)
	}

	var slots []models.CapacitySlot
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, fmt.Errorf("failed to decode capacity response: %w", err)
	}
	return slots, nil
}

// CachedCapacity wraps a CapacityService with a short-TTL Redis cache so a
// calendar render does not issue the same 30 queries on every navigation
// bounce. Cache failures fall through to the inner service.
type CachedCapacity struct {
	inner  CapacityService
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewCachedCapacity(inner CapacityService, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedCapacity {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedCapacity{inner: inner, client: client, ttl: ttl, log: log}
}

func (c *CachedCapacity) GetAvailability(ctx context.Context, experienceType, date string) ([]models.CapacitySlot, error) {
	key := "availability:" + experienceType + ":" + date

	if val, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var slots []models.CapacitySlot
		if err := json.Unmarshal(val, &slots); err == nil {
			return slots, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("AVAILABILITY", "cache read failed for "+key+": "+err.Error())
	}

	slots, err := c.inner.GetAvailability(ctx, experienceType, date)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(slots); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("AVAILABILITY", "cache write failed for "+key+": "+err.Error())
		}
	}
	return slots, nil
}
