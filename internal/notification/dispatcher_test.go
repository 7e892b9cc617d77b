package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu       sync.Mutex
	subjects []string
	fail     map[string]error
	panicOn  string
}

func (r *recordingDeliverer) Deliver(ctx context.Context, recipient, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	if subject == r.panicOn {
		panic("smtp client exploded")
	}
	return r.fail[subject]
}

func (r *recordingDeliverer) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subjects...)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) NotificationProcessed(err error) {
	m.Called(err)
}

func (m *mockRecorder) NotificationQueueDepth(depth int) {
	m.Called(depth)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatcher_PriorityThenArrivalOrder(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()))

	d.Enqueue(Job{Subject: "default", Priority: 3})
	d.Enqueue(Job{Subject: "payment-first", Priority: 1})
	d.Enqueue(Job{Subject: "identity", Priority: 2})
	d.Enqueue(Job{Subject: "payment-second", Priority: 1})
	require.Equal(t, 4, d.Len())

	for d.ProcessNext(context.Background()) {
	}

	assert.Equal(t, []string{"payment-first", "payment-second", "identity", "default"}, deliverer.delivered())
	assert.Zero(t, d.Len())
}

func TestDispatcher_PriorityDerivedFromType(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()))

	d.Enqueue(Job{Subject: "status", Type: TypeProposalStatusChanged})
	d.Enqueue(Job{Subject: "otp", Type: "login_otp"})
	d.Enqueue(Job{Subject: "invoice", Type: "invoice_paid"})

	for d.ProcessNext(context.Background()) {
	}

	assert.Equal(t, []string{"invoice", "otp", "status"}, deliverer.delivered())
}

func TestDispatcher_FailureIsDroppedNotRetried(t *testing.T) {
	deliverer := &recordingDeliverer{fail: map[string]error{"broken": errors.New("smtp down")}}
	recorder := &mockRecorder{}
	recorder.On("NotificationQueueDepth", mock.Anything).Return()
	recorder.On("NotificationProcessed", mock.Anything).Return()

	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()), WithRecorder(recorder))
	d.Enqueue(Job{Subject: "broken"})
	d.Enqueue(Job{Subject: "fine"})

	assert.True(t, d.ProcessNext(context.Background()))
	assert.True(t, d.ProcessNext(context.Background()))
	assert.False(t, d.ProcessNext(context.Background()))

	assert.Equal(t, []string{"broken", "fine"}, deliverer.delivered())
	recorder.AssertNumberOfCalls(t, "NotificationProcessed", 2)
	recorder.AssertCalled(t, "NotificationProcessed", deliverer.fail["broken"])
}

func TestDispatcher_ConcurrentEnqueueDeliversEveryJobOnce(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()))

	const producers, perProducer = 8, 50
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				d.Enqueue(Job{Subject: fmt.Sprintf("%d-%d", p, i), Priority: 1 + i%3})
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(deliverer.delivered()) == producers*perProducer
	}, 5*time.Second, 5*time.Millisecond)

	seen := make(map[string]int)
	for _, s := range deliverer.delivered() {
		seen[s]++
	}
	assert.Len(t, seen, producers*perProducer)
	for subject, n := range seen {
		assert.Equal(t, 1, n, subject)
	}
}

func TestDispatcher_StartIsIdempotentAndStopHalts(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, time.Hour, WithLogger(quietLogger()))

	ctx := context.Background()
	d.Start(ctx)
	d.Start(ctx)

	d.Enqueue(Job{Subject: "first"})
	d.Enqueue(Job{Subject: "second"})

	// Первое задание уходит сразу, второе ждёт паузы в один час.
	require.Eventually(t, func() bool {
		return len(deliverer.delivered()) == 1
	}, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the pending wait")
	}

	assert.Equal(t, []string{"first"}, deliverer.delivered())
	assert.Equal(t, 1, d.Len())
	d.Stop()
}

func TestDispatcher_WakesOnEnqueue(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, time.Hour, WithLogger(quietLogger()))
	d.Start(context.Background())
	defer d.Stop()

	time.Sleep(10 * time.Millisecond)
	d.Enqueue(Job{Subject: "late"})

	require.Eventually(t, func() bool {
		return len(deliverer.delivered()) == 1
	}, time.Second, 5*time.Millisecond)
}

type countingRecorder struct {
	mu       sync.Mutex
	failures int
	success  int
}

func (c *countingRecorder) NotificationProcessed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		return
	}
	c.success++
}

func (c *countingRecorder) NotificationQueueDepth(int) {}

func (c *countingRecorder) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success, c.failures
}

func TestDispatcher_PanickingDelivererDoesNotStopLoop(t *testing.T) {
	deliverer := &recordingDeliverer{panicOn: "boom"}
	recorder := &countingRecorder{}

	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()), WithRecorder(recorder))
	d.Enqueue(Job{Subject: "boom", Priority: 1})
	d.Enqueue(Job{Subject: "ok1", Priority: 2})
	d.Enqueue(Job{Subject: "ok2", Priority: 3})

	d.Start(context.Background())
	defer d.Stop()

	require.Eventually(t, func() bool { return len(deliverer.delivered()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"boom", "ok1", "ok2"}, deliverer.delivered())
	assert.Equal(t, 0, d.Len())

	require.Eventually(t, func() bool {
		success, failures := recorder.counts()
		return success == 2 && failures == 1
	}, time.Second, 5*time.Millisecond)

	d.Enqueue(Job{Subject: "after"})
	require.Eventually(t, func() bool { return len(deliverer.delivered()) == 4 }, time.Second, 5*time.Millisecond)
}

func TestDispatcher_RestartsAfterStartContextCancelled(t *testing.T) {
	deliverer := &recordingDeliverer{}
	d := NewDispatcher(deliverer, 0, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return !d.running
	}, time.Second, 5*time.Millisecond)

	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(Job{Subject: "after-restart"})
	require.Eventually(t, func() bool { return len(deliverer.delivered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, d.Len())
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		tag  string
		want int
	}{
		{"payment_failed", PriorityPayment},
		{"Invoice.Created", PriorityPayment},
		{"subscription_renewed", PriorityPayment},
		{"password_reset", PriorityIdentity},
		{"email_verification", PriorityIdentity},
		{"security_alert", PriorityIdentity},
		{"login_otp", PriorityIdentity},
		{TypeProposalDeleted, PriorityDefault},
		{"", PriorityDefault},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityFor(tt.tag))
		})
	}
}

func TestNewDispatcher_DefaultLoggerIsComponentScoped(t *testing.T) {
	d := NewDispatcher(&recordingDeliverer{}, 0)

	entry, ok := d.log.(*logrus.Entry)
	require.True(t, ok)
	assert.Equal(t, "notifications", entry.Data["component"])
}
