package notification

import (
	"context"
	"errors"
	"fmt"

	"BakeryStore/internal/domain/order"
	"BakeryStore/pkg/logger"
)

type NotificationService struct {
	sender Sender
	logger *logger.Logger
}

func NewNotificationService(sender Sender, l *logger.Logger) *NotificationService {
	return &NotificationService{sender: sender, logger: l}
}

// Notify delivers every notification rendered for the event. All sends are attempted.
func (s *NotificationService) Notify(ctx context.Context, event order.OrderEvent) error {
	notifications, err := Render(event)
	if err != nil {
		return fmt.Errorf("render notifications: %w", err)
	}

	var errs []error
	for _, n := range notifications {
		if err := s.sender.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", n.Audience, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Ctx(ctx).Debug("Notifications sent: order_id=%s, kind=%s, count=%d", event.OrderID, event.Kind, len(notifications))
	return nil
}

// LogSender writes notifications to the service log. It stands in for a real channel (SMS, push).
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(l *logger.Logger) *LogSender {
	return &LogSender{logger: l}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.Ctx(ctx).Info("Notification: audience=%s, order_id=%s, message=%q", n.Audience, n.OrderID, n.Message)
	return nil
}
