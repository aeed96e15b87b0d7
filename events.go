package tyjson

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CommentExchange is the fanout exchange comment events are published to.
const CommentExchange = "comments_exchange"

// CommentEvent announces a newly stored comment.
type CommentEvent struct {
	ID        string    `json:"id"`
	CommentID int64     `json:"comment_id"`
	PostID    int64     `json:"post_id"`
	Author    string    `json:"author"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newCommentEvent(c CommentRow) CommentEvent {
	return CommentEvent{
		ID:        uuid.NewString(),
		CommentID: c.COID,
		PostID:    c.CID,
		Author:    c.Author,
		Status:    c.Status,
		CreatedAt: time.Unix(c.Created, 0).UTC(),
	}
}

// CommentPublisher receives an event after every successful comment
// creation. A publish failure never fails the request.
type CommentPublisher interface {
	PublishComment(ctx context.Context, e CommentEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishComment(context.Context, CommentEvent) error { return nil }

// AMQPPublisher publishes comment events to a durable fanout exchange.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials url and declares CommentExchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("tyjson: dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("tyjson: open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		CommentExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("tyjson: declare %s: %w", CommentExchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// PublishComment sends e as a JSON message. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (p *AMQPPublisher) PublishComment(ctx context.Context, e CommentEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		CommentExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   e.ID,
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
