package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/circuitbreaker"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers plain-text mail from a fixed sender address.
type SendGridSender struct {
	client mailClient
	from   string
	cb     *gobreaker.CircuitBreaker[*rest.Response]
	log    logrus.FieldLogger
}

func NewSendGridSender(apiKey, from string, log logrus.FieldLogger) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	if from == "" {
		return nil, errors.New("sender address is empty")
	}
	return newSendGridSender(sendgrid.NewSendClient(apiKey), from, log), nil
}

func newSendGridSender(client mailClient, from string, log logrus.FieldLogger) *SendGridSender {
	return &SendGridSender{
		client: client,
		from:   from,
		cb:     circuitbreaker.New[*rest.Response]("sendgrid", log),
		log:    log,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("to address is empty")
	}
	message := mail.NewSingleEmail(mail.NewEmail("", s.from), subject, mail.NewEmail("", to), body, "")

	resp, err := s.cb.Execute(func() (*rest.Response, error) {
		resp, err := s.client.SendWithContext(ctx, message)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return resp, fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
		}
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	s.log.WithFields(logrus.Fields{"status": resp.StatusCode, "to": to}).Debug("mail sent")
	return nil
}
