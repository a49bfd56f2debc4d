package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservation/models"
)

type fakePublisher struct {
	key string
	msg amqp.Publishing
	err error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.msg = msg
	return f.err
}

var user = models.User{ID: 4, Email: "ana@example.com", FirstName: "Ana"}

func TestAMQPNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{ch: pub, queue: "user.verification"}

	require.NoError(t, n.SendVerification(context.Background(), user, "http://x/users/verify/abc"))
	assert.Equal(t, "user.verification", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var v Verification
	require.NoError(t, json.Unmarshal(pub.msg.Body, &v))
	assert.Equal(t, uint(4), v.UserID)
	assert.Equal(t, "http://x/users/verify/abc", v.Link)
	assert.NoError(t, n.Close())
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	n := &AMQPNotifier{ch: &fakePublisher{err: errors.New("channel closed")}, queue: "q"}
	err := n.SendVerification(context.Background(), user, "link")
	assert.ErrorContains(t, err, "channel closed")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	n := NewLogNotifier(logger)
	require.NoError(t, n.SendVerification(context.Background(), user, "http://x/users/verify/abc"))
	assert.Contains(t, buf.String(), "verification link issued")
	assert.Contains(t, buf.String(), "ana@example.com")
}
