// Package notify consumes application events and mails the applicant.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jobportal/apiserver/internal/logger"
	"github.com/jobportal/apiserver/internal/mq"
)

const defaultSiteName = "JobPortal"

// Email is a rendered plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer writes emails to the log instead of delivering them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, email Email) error {
	logger.Infof("mail to=%s subject=%q\n%s", email.To, email.Subject, email.Body)
	return nil
}

// Subscriber is the consuming side of the message queue.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Notifier turns application events into emails.
type Notifier struct {
	mailer   Mailer
	siteName string
}

func New(mailer Mailer, siteName string) *Notifier {
	if strings.TrimSpace(siteName) == "" {
		siteName = defaultSiteName
	}
	return &Notifier{mailer: mailer, siteName: siteName}
}

// Run subscribes to the submitted and status changed channels and blocks
// until ctx is cancelled or a subscription fails.
func (n *Notifier) Run(ctx context.Context, sub Subscriber) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subscriptions := map[string]mq.Handler{
		mq.ApplicationSubmitted:     n.HandleSubmitted,
		mq.ApplicationStatusChanged: n.HandleStatusChanged,
	}

	var (
		wg   sync.WaitGroup
		once sync.Once
		err  error
	)
	for channel, handler := range subscriptions {
		wg.Add(1)
		go func(channel string, handler mq.Handler) {
			defer wg.Done()
			logger.Infof("consuming %s", channel)
			if serr := sub.Subscribe(ctx, channel, handler); serr != nil && !errors.Is(serr, context.Canceled) {
				once.Do(func() {
					err = fmt.Errorf("subscribe %s: %w", channel, serr)
					cancel()
				})
			}
		}(channel, handler)
	}
	wg.Wait()
	return err
}

// HandleStatusChanged mails the applicant the new status. Undecodable
// messages are dropped so they are not redelivered forever.
func (n *Notifier) HandleStatusChanged(ctx context.Context, msg mq.Message) error {
	event, err := mq.DecodeStatusChanged(msg)
	if err != nil {
		logger.Warningf("drop message %s: %v", msg.ID, err)
		return nil
	}
	if event.ApplicantEmail == "" {
		return nil
	}
	return n.mailer.Send(ctx, StatusEmail(n.siteName, event))
}

// HandleSubmitted sends the applicant a receipt.
func (n *Notifier) HandleSubmitted(ctx context.Context, msg mq.Message) error {
	event, err := mq.DecodeSubmitted(msg)
	if err != nil {
		logger.Warningf("drop message %s: %v", msg.ID, err)
		return nil
	}
	if event.ApplicantEmail == "" {
		return nil
	}
	return n.mailer.Send(ctx, ReceiptEmail(n.siteName, event))
}

func StatusEmail(siteName string, event mq.StatusChangedEvent) Email {
	name := event.ApplicantName
	if name == "" {
		name = "Applicant"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "The status of your application for %s has been updated to: %s.\n\n", event.JobTitle, event.Status)
	b.WriteString("Check your dashboard for more details.\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s Team\n", siteName)

	return Email{
		To:      event.ApplicantEmail,
		Subject: fmt.Sprintf("Update on your application for %s", event.JobTitle),
		Body:    b.String(),
	}
}

func ReceiptEmail(siteName string, event mq.SubmittedEvent) Email {
	name := event.ApplicantName
	if name == "" {
		name = "Applicant"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "We have received your application for %s.\n\n", event.JobTitle)
	fmt.Fprintf(&b, "Good luck!\n%s Team\n", siteName)

	return Email{
		To:      event.ApplicantEmail,
		Subject: fmt.Sprintf("Application Received: %s", event.JobTitle),
		Body:    b.String(),
	}
}
