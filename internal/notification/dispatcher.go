package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrIncompleteOrder = errors.New("order data incomplete in message")
	ErrNoEmail         = errors.New("no email address for user")
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Ledger remembers which orders were already mailed.
type Ledger interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Message is one delivery from the event bus. ID is unique within a batch.
type Message struct {
	ID   string
	Body []byte
}

type BatchItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

type BatchResult struct {
	BatchItemFailures []BatchItemFailure `json:"batchItemFailures"`
}

// Dispatcher turns order events into confirmation emails.
type Dispatcher struct {
	users       repository.UserRepository
	sender      Sender
	ledger      Ledger
	concurrency int
	log         logrus.FieldLogger
}

func NewDispatcher(users repository.UserRepository, sender Sender, ledger Ledger, concurrency int, log logrus.FieldLogger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		users:       users,
		sender:      sender,
		ledger:      ledger,
		concurrency: concurrency,
		log:         log,
	}
}

// HandleBatch processes every message independently and reports the ids of
// the ones that failed, in batch order. One failure never stops the others.
func (d *Dispatcher) HandleBatch(ctx context.Context, msgs []Message) BatchResult {
	failed := make([]bool, len(msgs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, m := range msgs {
		i, m := i, m
		g.Go(func() error {
			if err := d.process(ctx, m); err != nil {
				logger.WithContext(ctx, d.log).WithError(err).WithField("message_id", m.ID).Error("order email failed")
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{BatchItemFailures: []BatchItemFailure{}}
	for i, f := range failed {
		if f {
			result.BatchItemFailures = append(result.BatchItemFailures, BatchItemFailure{ItemIdentifier: msgs[i].ID})
		}
	}
	if n := len(result.BatchItemFailures); n > 0 {
		logger.WithContext(ctx, d.log).WithField("failures", n).Warn("some messages failed to process")
	}
	return result
}

func (d *Dispatcher) process(ctx context.Context, m Message) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(m.Body, &event); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	order := event.Order
	if order == nil || order.OrderID == "" || order.UserID == "" {
		return ErrIncompleteOrder
	}
	log := logger.WithContext(ctx, d.log).WithFields(logrus.Fields{"order_id": order.OrderID, "user_id": order.UserID})

	key := order.OrderID + ":" + event.Type
	claimed, err := d.ledger.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !claimed {
		log.Info("order email already sent")
		return nil
	}

	if err := d.send(ctx, order); err != nil {
		if errRelease := d.ledger.Release(context.WithoutCancel(ctx), key); errRelease != nil {
			log.WithError(errRelease).Warn("ledger release failed")
		}
		return err
	}
	log.Info("order confirmation sent")
	return nil
}

func (d *Dispatcher) send(ctx context.Context, order *domain.Order) error {
	user, err := d.users.GetUser(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("get user %s: %w", order.UserID, err)
	}
	if user.Email == "" {
		return fmt.Errorf("%w %s", ErrNoEmail, order.UserID)
	}

	subject, body := RenderOrderConfirmation(order, user)
	return d.sender.Send(ctx, user.Email, subject, body)
}

func RenderOrderConfirmation(order *domain.Order, user *domain.User) (subject, body string) {
	name := user.Name
	if name == "" {
		name = "customer"
	}
	subject = fmt.Sprintf("Order confirmation #%s", order.OrderID)
	body = fmt.Sprintf(`Hello %s,

Thank you for your purchase. We have received your order #%s for a total of %.2f %s and are processing it.

Regards,
The e-commerce team.`, name, order.OrderID, order.TotalAmount, order.Currency)
	return subject, body
}
