package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// ReviewEvent сообщение о решении администратора по платежу.
type ReviewEvent struct {
	PaymentID          string     `json:"payment_id"`
	UserUID            string     `json:"user_uid"`
	AdminUID           string     `json:"admin_uid"`
	Status             string     `json:"status"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	ProcessedAt        time.Time  `json:"processed_at"`
}

// Publisher публикует события о решениях по платежам в обменник payments.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish отправляет событие с заданным ключом маршрутизации.
func (p *Publisher) Publish(routingKey string, event ReviewEvent) error {
	return PublishMessage(p.ch, Exchange, routingKey, event)
}

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
