package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

const DefaultStream = "stream:piracy_alerts"

// RedisClient is the subset of the redis client used for publishing.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// StreamPublisher appends one event per high-risk record to a Redis stream.
type StreamPublisher struct {
	client RedisClient
	stream string
	now    func() time.Time
}

func NewStreamPublisher(client RedisClient, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, now: time.Now}
}

// NewRedisPublisher connects to the Redis server at addr.
func NewRedisPublisher(addr, stream string) *StreamPublisher {
	return NewStreamPublisher(redis.NewClient(&redis.Options{Addr: addr}), stream)
}

type event struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Timestamp  string   `json:"timestamp"`
	ASIN       string   `json:"asin"`
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	Seller     string   `json:"seller"`
	Price      *float64 `json:"price,omitempty"`
	SearchTerm string   `json:"search_term"`
	Prediction string   `json:"ai_prediction"`
	Confidence float64  `json:"ai_confidence"`
	RiskScore  int      `json:"risk_score"`
	Reasons    []string `json:"suspicion_reasons,omitempty"`
}

func (p *StreamPublisher) Publish(ctx context.Context, records []models.AnalyzedRecord) error {
	for _, r := range records {
		ev := event{
			ID:         uuid.New().String(),
			Type:       "piracy.high_risk_detected",
			Timestamp:  p.now().UTC().Format(time.RFC3339),
			ASIN:       r.ASIN,
			Title:      r.Title,
			URL:        r.URL,
			Seller:     r.Seller,
			Price:      r.Price,
			SearchTerm: r.SearchTerm,
			Prediction: string(r.Prediction),
			Confidence: r.Confidence,
			RiskScore:  r.RiskScore,
			Reasons:    r.SuspicionReasons(),
		}

		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}

		args := &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]interface{}{
				"data":       string(data),
				"type":       ev.Type,
				"event_id":   ev.ID,
				"asin":       r.ASIN,
				"risk_score": r.RiskScore,
			},
		}
		if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
			return fmt.Errorf("failed to publish to redis: %w", err)
		}
	}
	return nil
}

func (p *StreamPublisher) Close() error {
	return p.client.Close()
}
