package notify

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/resend/resend-go/v2"
)

// EmailSender is the part of the Resend client the mailer uses.
type EmailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

type Mailer struct {
	Emails EmailSender
	From   string
}

func NewMailer(apiKey, from string) *Mailer {
	return &Mailer{Emails: resend.NewClient(apiKey).Emails, From: from}
}

// Send delivers one confirmation. Resend deduplicates on the order id, so a
// redelivered event does not mail the customer twice.
func (m *Mailer) Send(ctx context.Context, c Confirmation) error {
	subject, html, err := Render(c)
	if err != nil {
		return fmt.Errorf("render confirmation %s: %w", c.OrderID, err)
	}
	_, err = m.Emails.SendWithOptions(ctx, &resend.SendEmailRequest{
		From:    m.From,
		To:      []string{c.Email},
		Subject: subject,
		Html:    html,
		Tags:    []resend.Tag{{Name: "category", Value: "order_confirmation"}},
	}, &resend.SendEmailOptions{IdempotencyKey: "order-confirmation/" + c.OrderID})
	if err != nil {
		return fmt.Errorf("send confirmation %s: %w", c.OrderID, err)
	}
	return nil
}

// Notify makes Mailer usable as the checkout notifier in direct mode.
func (m *Mailer) Notify(ctx context.Context, o orders.Order) error {
	return m.Send(ctx, FromOrder(o))
}
