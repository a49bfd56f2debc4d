package notify

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/models"
)

// Notifier delivers account verification links.
type Notifier interface {
	SendVerification(ctx context.Context, user models.User, link string) error
}

// Verification is the payload handed to a delivery backend.
type Verification struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Link      string `json:"link"`
}

func newVerification(user models.User, link string) Verification {
	return Verification{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Link:      link,
	}
}

// LogNotifier writes verification links to the log. Used in development
// and whenever no broker is configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) SendVerification(_ context.Context, user models.User, link string) error {
	v := newVerification(user, link)
	n.Logger.WithFields(logrus.Fields{
		"user_id": v.UserID,
		"email":   v.Email,
		"link":    v.Link,
	}).Info("verification link issued")
	return nil
}
