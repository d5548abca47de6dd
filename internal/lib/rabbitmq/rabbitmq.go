// Package rabbitmq реализует подключение к брокеру сообщений и публикацию
// событий биллинга в обменник.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Publisher публикует сообщения в обменник RabbitMQ.
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// New подключается к брокеру и объявляет обменник. Подключение
// повторяется с паузой, чтобы пережить старт брокера рядом с сервисом.
func New(address, exchange, routingKey string) (*Publisher, error) {
	const op = "rabbitmq.New"

	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(address)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// PublishMessage сериализует сообщение в JSON и публикует его в обменник
// с флагом Persistent.
func (p *Publisher) PublishMessage(ctx context.Context, body any) error {
	const op = "rabbitmq.PublishMessage"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.channel.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение с брокером.
func (p *Publisher) Close() error {
	const op = "rabbitmq.Close"

	if err := p.channel.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
