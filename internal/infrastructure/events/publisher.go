// Package events publishes outbound balance-change signals over
// RabbitMQ for the notification and UI-refresh subsystems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/clinicdesk/payments/internal/application"
	amqp "github.com/rabbitmq/amqp091-go"
)

const routingKeyBalanceChanged = "invoice.balance_changed"

type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewPublisher dials the broker and declares a durable topic exchange.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// BalanceChanged implements application.BalanceNotifier.
func (p *Publisher) BalanceChanged(ctx context.Context, event application.BalanceChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal balance event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKeyBalanceChanged,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish balance event: %w", err)
	}

	p.logger.Debug("published balance change",
		"invoice_id", event.InvoiceID,
		"booking_id", event.BookingID,
		"payment_id", event.PaymentID,
	)
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
