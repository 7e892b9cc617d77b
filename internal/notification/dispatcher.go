package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-workspace/internal/goroutine"
	"github.com/ignatzorin/proposal-workspace/internal/logger"
)

// Job: задание на доставку. Priority 0 означает «вывести из Type».
type Job struct {
	Recipient string
	Subject   string
	Body      string
	Type      string
	Priority  int
}

// Recorder принимает статистику диспетчера; реализуется пакетом metrics.
type Recorder interface {
	NotificationProcessed(err error)
	NotificationQueueDepth(depth int)
}

type nopRecorder struct{}

func (nopRecorder) NotificationProcessed(error) {}
func (nopRecorder) NotificationQueueDepth(int)  {}

// Dispatcher: очередь уведомлений с приоритетами и одним циклом доставки.
// Внутри полосы приоритета порядок FIFO. Ошибка доставки логируется, задание отбрасывается.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []Job
	signal  chan struct{}
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	deliverer Deliverer
	interval  time.Duration
	log       logrus.FieldLogger
	recorder  Recorder
	recovery  *goroutine.RecoveryHandler
}

type Option func(*Dispatcher)

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func NewDispatcher(deliverer Deliverer, interval time.Duration, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		signal:    make(chan struct{}, 1),
		deliverer: deliverer,
		interval:  interval,
		log:       logger.Component("notifications"),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recovery = goroutine.NewRecoveryHandler(d.log)
	return d
}

// Enqueue ставит задание после всех заданий с тем же или более высоким приоритетом.
func (d *Dispatcher) Enqueue(job Job) {
	if job.Priority <= 0 {
		job.Priority = PriorityFor(job.Type)
	}

	d.mu.Lock()
	pos := len(d.queue)
	for i, queued := range d.queue {
		if queued.Priority > job.Priority {
			pos = i
			break
		}
	}
	d.queue = append(d.queue, Job{})
	copy(d.queue[pos+1:], d.queue[pos:])
	d.queue[pos] = job
	depth := len(d.queue)
	d.mu.Unlock()

	d.recorder.NotificationQueueDepth(depth)

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// ProcessNext извлекает голову очереди и доставляет её. false, если очередь пуста.
func (d *Dispatcher) ProcessNext(ctx context.Context) bool {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	job := d.queue[0]
	d.queue[0] = Job{}
	d.queue = d.queue[1:]
	depth := len(d.queue)
	d.mu.Unlock()

	d.recorder.NotificationQueueDepth(depth)

	err := d.deliver(ctx, job)
	d.recorder.NotificationProcessed(err)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"recipient": job.Recipient,
			"type":      job.Type,
			"priority":  job.Priority,
		}).WithError(err).Warn("notification delivery failed, job dropped")
	}
	return true
}

// deliver превращает panic доставщика в ошибку, чтобы цикл продолжал работу.
func (d *Dispatcher) deliver(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deliverer panic: %v", r)
		}
	}()
	return d.deliverer.Deliver(ctx, job.Recipient, job.Subject, job.Body)
}

// Start запускает цикл доставки. Повторный вызов во время работы ничего не делает.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.running = true
	d.cancel = cancel
	d.done = make(chan struct{})

	done := d.done
	d.recovery.SafeGoWithContext(loopCtx, "notification-dispatcher", func(ctx context.Context) {
		defer func() {
			d.mu.Lock()
			if d.done == done {
				d.running = false
			}
			d.mu.Unlock()
			close(done)
		}()
		d.run(ctx)
	})
}

// Stop прерывает ожидание и дожидается выхода из цикла. Задания в очереди сохраняются.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if d.ProcessNext(ctx) {
			if !d.pause(ctx) {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-d.signal:
		}
	}
}

// pause выдерживает интервал между доставками; false, если цикл остановлен.
func (d *Dispatcher) pause(ctx context.Context) bool {
	if d.interval <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
