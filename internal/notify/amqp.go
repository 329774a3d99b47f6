package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/streadway/amqp"
)

// AMQPPublisher sends events to a topic exchange, routed by event name.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, errors.Wrap(err, "failed to declare exchange")
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	log.Printf("Publishing %s to exchange '%s'", evt.Name, p.exchange)

	// amqp.Channel is not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(
		p.exchange,
		evt.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   evt.Timestamp,
			Body:        body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "failed to publish %s", evt.Name)
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
