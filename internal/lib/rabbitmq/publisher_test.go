package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRabbitMQContainer(ctx context.Context, t *testing.T) (testcontainers.Container, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForListeningPort("5672/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	rmqContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	cleanup := func() {
		if err := rmqContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}

	return rmqContainer, cleanup
}

func getAmqpURI(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5672/tcp")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()), nil
}

func TestPublishReviewEvent(t *testing.T) {
	ctx := context.Background()
	rmqContainer, cleanup := setupRabbitMQContainer(ctx, t)
	defer cleanup()

	amqpURI, err := getAmqpURI(ctx, rmqContainer)
	require.NoError(t, err)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close connection: %v", err)
		}
	}()

	ch, err := SetupChannel(conn, GetReviewQueues())
	require.NoError(t, err)
	defer func() {
		if err := ch.Close(); err != nil {
			t.Errorf("failed to close channel: %v", err)
		}
	}()

	event := ReviewEvent{
		PaymentID:   "11111111-2222-3333-4444-555555555555",
		UserUID:     "user-uid",
		AdminUID:    "admin-uid",
		Status:      "approved",
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}

	err = PublishMessage(ch, Exchange, RoutingKeyApproved, event)
	require.NoError(t, err)

	deliveries, err := ch.Consume("payments.approved", "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got ReviewEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, event.PaymentID, got.PaymentID)
		assert.Equal(t, "approved", got.Status)
		assert.Equal(t, "application/json", d.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishMessage_MarshalError(t *testing.T) {
	ctx := context.Background()
	rmqContainer, cleanup := setupRabbitMQContainer(ctx, t)
	defer cleanup()

	amqpURI, err := getAmqpURI(ctx, rmqContainer)
	require.NoError(t, err)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	// В json marshal нельзя сериализовать канал
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{Ch: make(chan int)}

	err = PublishMessage(ch, "", "whatever", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}
