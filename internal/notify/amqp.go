package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/logger"
)

const DefaultExchange = "screening_updates"

// publisher is the part of *amqp.Channel used here.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes events to a topic exchange with routing key "batch.<id>".
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       publisher
	exchange string
	logger   *zap.Logger
}

// DialAMQP connects to the broker and declares a durable topic exchange.
func DialAMQP(url, exchange string, log *zap.Logger) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	n := newAMQP(ch, exchange, log)
	n.conn = conn
	return n, nil
}

func newAMQP(ch publisher, exchange string, log *zap.Logger) *AMQP {
	return &AMQP{
		ch:       ch,
		exchange: exchange,
		logger:   logger.WithFields(log, zap.String("exchange", exchange)),
	}
}

// RoutingKey returns the key events of one batch are published with.
func RoutingKey(batchID string) string {
	return "batch." + batchID
}

func (n *AMQP) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.Publish(
		n.exchange,
		RoutingKey(ev.BatchID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Timestamp:   ev.Timestamp,
			Type:        ev.Type,
			Body:        body,
		},
	)
	if err != nil {
		n.logger.Warn("publishing event failed", zap.String("batch_id", ev.BatchID), zap.Error(err))
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (n *AMQP) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
