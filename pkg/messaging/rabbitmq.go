package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrNotConnected = errors.New("there is no connection to RabbitMQ")

type RabbitMQClient struct {
	config     RabbitMQConfig
	log        *slog.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
	done       chan struct{}
	// reconnected receive a signal each time a lost connection is restored.
	reconnected []chan struct{}
}

func NewRabbitMQClient(config RabbitMQConfig, log *slog.Logger) *RabbitMQClient {
	return &RabbitMQClient{
		config: config,
		log:    log.With("component", "rabbitmq"),
		done:   make(chan struct{}),
	}
}

func (r *RabbitMQClient) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempts := r.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		r.connection, err = amqp.DialConfig(r.config.ConnectionURL(), amqp.Config{
			Dial: amqp.DefaultDial(r.config.ConnectionTimeout),
		})
		if err != nil {
			r.log.Warn("rabbitmq connection error", "attempt", i+1, "of", attempts, "err", err)
			if i < attempts-1 {
				time.Sleep(r.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		r.channel, err = r.connection.Channel()
		if err != nil {
			r.connection.Close()
			return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
		}

		err = r.channel.ExchangeDeclare(
			r.config.Exchange, // name
			"topic",           // type
			true,              // durable
			false,             // auto-deleted
			false,             // internal
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			r.channel.Close()
			r.connection.Close()
			return fmt.Errorf("failed to declare exchange: %w", err)
		}

		r.log.Info("connected to rabbitmq", "host", r.config.Host, "exchange", r.config.Exchange)

		go r.handleReconnection(r.connection)

		return nil
	}

	return err
}

func (r *RabbitMQClient) handleReconnection(conn *amqp.Connection) {
	notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case err := <-notifyClose:
		if r.closing() {
			return
		}
		r.log.Error("rabbitmq connection lost, reconnecting", "err", err)
	case <-r.done:
		return
	}

	delay := r.config.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	for {
		select {
		case <-time.After(delay):
		case <-r.done:
			return
		}
		if r.closing() {
			return
		}
		err := r.Connect()
		if err == nil {
			r.notifyReconnected()
			return
		}
		r.log.Error("rabbitmq reconnect failed, will retry", "err", err, "delay", delay)
	}
}

func (r *RabbitMQClient) closing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isClosing
}

// NotifyReconnect registers ch to be signalled after every successful
// reconnect. Signals are dropped when ch is not ready, so a buffer of one
// is enough.
func (r *RabbitMQClient) NotifyReconnect(ch chan struct{}) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnected = append(r.reconnected, ch)
	return ch
}

func (r *RabbitMQClient) notifyReconnected() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.reconnected {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (r *RabbitMQClient) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQClient) Exchange() string {
	return r.config.Exchange
}

// Done is closed once Close has been called.
func (r *RabbitMQClient) Done() <-chan struct{} {
	return r.done
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosing {
		return nil
	}

	r.isClosing = true
	close(r.done)

	var errs []error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("channel close error: %w", err))
		}
	}
	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("connection close error: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		r.log.Error("failed to close rabbitmq", "err", err)
		return err
	}
	r.log.Info("rabbitmq connection closed")
	return nil
}

func (r *RabbitMQClient) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.connection != nil && !r.connection.IsClosed()
}
