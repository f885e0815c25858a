// Package eventbus publishes engine notifications to a RabbitMQ topic
// exchange so any number of live-update frontends can subscribe without the
// engine knowing about them.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/flashdrop/drop-api/internal/domain"
)

const publishTimeout = 5 * time.Second

const (
	routingKeyStockChanged      = "drop.stock.changed"
	routingKeyPurchaseCompleted = "drop.purchase.completed"
)

// Publisher implements app.Notifier over an AMQP topic exchange. Publishes
// are best-effort: failures are logged, never returned to the engine.
type Publisher struct {
	exchange string
	logger   zerolog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		exchange: exchange,
		logger:   logger,
		conn:     conn,
		channel:  channel,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type stockChangedEvent struct {
	DropID         string `json:"dropId"`
	AvailableStock int    `json:"availableStock"`
}

type purchaseCompletedEvent struct {
	DropID        string         `json:"dropId"`
	Username      string         `json:"username"`
	TopPurchasers []topPurchaser `json:"topPurchasers"`
}

type topPurchaser struct {
	Username    string    `json:"username"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

func (p *Publisher) StockChanged(ctx context.Context, dropID string, availableStock int) {
	p.publish(ctx, routingKeyStockChanged, stockChangedEvent{
		DropID:         dropID,
		AvailableStock: availableStock,
	})
}

func (p *Publisher) PurchaseCompleted(ctx context.Context, dropID, purchaser string, recent []domain.RecentPurchaser) {
	top := make([]topPurchaser, 0, len(recent))
	for _, r := range recent {
		top = append(top, topPurchaser{Username: r.Username, PurchasedAt: r.PurchasedAt})
	}
	p.publish(ctx, routingKeyPurchaseCompleted, purchaseCompletedEvent{
		DropID:        dropID,
		Username:      purchaser,
		TopPurchasers: top,
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("routing_key", routingKey).Msg("marshal event")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         body,
		Expiration:   fmt.Sprintf("%d", publishTimeout.Milliseconds()),
	})
	if err != nil {
		p.logger.Error().Err(err).Str("routing_key", routingKey).Msg("publish event")
	}
}
