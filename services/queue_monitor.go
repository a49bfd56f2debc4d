package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/models"
)

// QueueSource yields the current reservation queue.
type QueueSource interface {
	Queue(ctx context.Context) ([]models.Reservation, error)
}

// QueuePublisher receives periodic queue snapshots.
type QueuePublisher interface {
	QueueSnapshot(queue []models.Reservation)
}

// QueueMonitor pushes a queue snapshot to live clients on every tick so
// screens drop reservations whose service window has passed.
type QueueMonitor struct {
	Source    QueueSource
	Publisher QueuePublisher
	Interval  time.Duration
	Logger    *logrus.Logger

	started  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewQueueMonitor(source QueueSource, publisher QueuePublisher, interval time.Duration) *QueueMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &QueueMonitor{
		Source:    source,
		Publisher: publisher,
		Interval:  interval,
		Logger:    logrus.StandardLogger(),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (qm *QueueMonitor) Start() {
	if !qm.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(qm.done)
		ticker := time.NewTicker(qm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				qm.publish()
			case <-qm.stopChan:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight publish to finish.
func (qm *QueueMonitor) Stop() {
	qm.stopOnce.Do(func() { close(qm.stopChan) })
	if qm.started.Load() {
		<-qm.done
	}
}

func (qm *QueueMonitor) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), qm.Interval)
	defer cancel()

	queue, err := qm.Source.Queue(ctx)
	if err != nil {
		qm.Logger.WithError(err).Error("load reservation queue")
		return
	}
	qm.Publisher.QueueSnapshot(queue)
}
