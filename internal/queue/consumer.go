package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cleancity/waste-collection/internal/model"
)

// NotificationWriter appends notifications built from task events. The
// MongoDB notification repository satisfies it.
type NotificationWriter interface {
	Insert(ctx context.Context, n model.Notification) error
}

// StartNotificationConsumer connects to the broker, declares the durable
// task.status queue and consumes events, writing one notification per
// affected user. It runs a reconnect loop with exponential backoff and
// never returns under normal operation; processing errors reject the
// offending message without requeueing so the consumer cannot spin on a
// poison payload.
func StartNotificationConsumer(store NotificationWriter) error {
	url := BrokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notification-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, store); err != nil {
			log.Printf("notification-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, store NotificationWriter) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notification-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(TaskStatusQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TaskStatusQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(store, d.Body); err != nil {
			log.Printf("notification-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(store NotificationWriter, body []byte) error {
	var ev TaskStatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, n := range NotificationsFor(ev) {
		if err := store.Insert(ctx, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// NotificationsFor maps one status event to the notifications each
// affected user should see. Unknown statuses produce nothing.
func NotificationsFor(ev TaskStatusEvent) []model.Notification {
	var out []model.Notification
	add := func(userID, message, typ string) {
		if userID == "" {
			return
		}
		out = append(out, model.Notification{
			UserID:    userID,
			Message:   message,
			Type:      typ,
			CreatedAt: time.Now().UTC(),
		})
	}
	switch ev.Status {
	case model.StatusInProgress:
		add(ev.CitizenID,
			fmt.Sprintf("A collector claimed your %s report at %s.", ev.WasteType, ev.Location),
			model.NotifyInfo)
	case model.StatusCollected:
		add(ev.CitizenID,
			fmt.Sprintf("Your %s report at %s was collected and is awaiting verification.", ev.WasteType, ev.Location),
			model.NotifyInfo)
	case model.StatusVerified:
		add(ev.CitizenID,
			fmt.Sprintf("Your %s report was verified. You earned %d points.", ev.WasteType, ev.PointsAwarded),
			model.NotifySuccess)
		add(ev.CollectorID, "A collection you completed was verified.", model.NotifySuccess)
	case model.StatusRejected:
		add(ev.CitizenID,
			fmt.Sprintf("Your %s report at %s was rejected during verification.", ev.WasteType, ev.Location),
			model.NotifyWarning)
		add(ev.CollectorID, "A collection you submitted was rejected. Please review the proof photo.", model.NotifyWarning)
	}
	return out
}
