package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// openTrainChannel dials url, retrying up to MaxConnectRetry times, opens a
// channel and declares the durable train queue on it. Both sides declare the
// queue so either may start first.
func openTrainChannel(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= MaxConnectRetry; attempt++ {
		if conn, err = amqp.Dial(url); err == nil {
			break
		}
		slog.Warn("failed to connect to rabbitmq", "attempt", attempt, "max_attempts", MaxConnectRetry, "error", err)
		time.Sleep(RetryDelay)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", MaxConnectRetry, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if _, err := channel.QueueDeclare(TrainQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare rabbitmq queue %s: %w", TrainQueue, err)
	}

	slog.Info("connected to rabbitmq", "queue", TrainQueue)
	return conn, channel, nil
}

type RabbitMQPublisher struct {
	url string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

func NewRabbitMQPublisher(rabbitMQURL string) (*RabbitMQPublisher, error) {
	conn, channel, err := openTrainChannel(rabbitMQURL)
	if err != nil {
		return nil, err
	}

	p := &RabbitMQPublisher{url: rabbitMQURL, conn: conn, channel: channel}
	go p.reconnectOnClose(channel)
	return p, nil
}

func (p *RabbitMQPublisher) reconnectOnClose(channel *amqp.Channel) {
	err, ok := <-channel.NotifyClose(make(chan *amqp.Error, 1))
	if !ok {
		return
	}

	slog.Warn("rabbitmq publisher channel closed, reconnecting", "error", err)

	for {
		conn, next, err := openTrainChannel(p.url)

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			if err == nil {
				conn.Close()
			}
			return
		}
		if err == nil {
			p.conn, p.channel = conn, next
			p.mu.Unlock()
			slog.Info("rabbitmq publisher reconnected")
			go p.reconnectOnClose(next)
			return
		}
		p.mu.Unlock()

		time.Sleep(RetryDelay * 10)
	}
}

func (p *RabbitMQPublisher) PublishTrainTask(ctx context.Context, payload TrainTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal train task: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || p.channel.IsClosed() {
		return ErrQueueClosed
	}

	err = p.channel.PublishWithContext(ctx, "", TrainQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    payload.RunId.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		slog.Error("failed to publish train task", "run_id", payload.RunId, "error", err)
		return fmt.Errorf("failed to publish train task: %w", err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if err := p.conn.Close(); err != nil {
		slog.Error("error closing rabbitmq connection", "error", err)
	}
}

type RabbitMQTask struct {
	d amqp.Delivery
}

func (t *RabbitMQTask) Type() string {
	return t.d.RoutingKey
}

func (t *RabbitMQTask) Payload() []byte {
	return t.d.Body
}

func (t *RabbitMQTask) Ack() error {
	return t.d.Ack(false)
}

func (t *RabbitMQTask) Nack() error {
	// No requeue, the run is already marked failed.
	return t.d.Nack(false, false)
}

func (t *RabbitMQTask) Reject() error {
	return t.d.Reject(false)
}

type RabbitMQReceiver struct {
	url   string
	tasks chan Task

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRabbitMQReceiver(rabbitMQURL string) (*RabbitMQReceiver, error) {
	c := &RabbitMQReceiver{
		url:   rabbitMQURL,
		tasks: make(chan Task),
		stop:  make(chan struct{}),
	}

	if err := c.consume(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *RabbitMQReceiver) consume() error {
	conn, channel, err := openTrainChannel(c.url)
	if err != nil {
		return err
	}

	// One training run at a time per worker.
	if err := channel.Qos(1, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set channel qos: %w", err)
	}

	deliveries, err := channel.Consume(TrainQueue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to consume from rabbitmq queue %s: %w", TrainQueue, err)
	}

	go c.forward(deliveries)
	go c.watch(conn, channel)

	return nil
}

func (c *RabbitMQReceiver) forward(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		select {
		case c.tasks <- &RabbitMQTask{d: d}:
		case <-c.stop:
			return
		}
	}
}

func (c *RabbitMQReceiver) watch(conn *amqp.Connection, channel *amqp.Channel) {
	select {
	case err, ok := <-channel.NotifyClose(make(chan *amqp.Error, 1)):
		if !ok {
			return
		}

		slog.Warn("rabbitmq consumer channel closed, reconnecting", "error", err)
		for {
			select {
			case <-c.stop:
				return
			default:
			}

			if c.consume() == nil {
				slog.Info("rabbitmq consumer reconnected")
				return
			}
			time.Sleep(RetryDelay * 10)
		}

	case <-c.stop:
		slog.Info("stopping rabbitmq consumer")
		if err := conn.Close(); err != nil {
			slog.Error("error closing rabbitmq connection", "error", err)
		}
	}
}

func (c *RabbitMQReceiver) Tasks() <-chan Task {
	return c.tasks
}

func (c *RabbitMQReceiver) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
