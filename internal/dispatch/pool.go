// Package dispatch implements a chat-sharded worker pool for outbound
// delivery: each (channel, chat_id) hashes to a fixed worker, so jobs for
// the same chat always run on the same goroutine (preserving the
// per-chat dispatch-order guarantee) while different chats deliver
// concurrently.
package dispatch

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is one unit of outbound work bound to a (channel, chat_id) shard key.
type Job struct {
	Channel string
	ChatID  string
	Handler func(ctx context.Context) error
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	NumWorkers      int
	QueueSize       int
	ActiveWorkers   int
	TotalDispatched int64
	TotalProcessed  int64
	TotalDropped    int64
	TotalErrors     int64
}

// Pool is a fixed set of workers, each with its own bounded job queue.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32
	log        *logrus.Entry

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

type worker struct {
	id            int
	jobQueue      chan Job
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	jobsProcessed int64
	pool          *Pool
}

// New builds a Pool with numWorkers workers, each queueing up to queueSize
// pending jobs.
func New(numWorkers, queueSize int, log *logrus.Entry) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pool{numWorkers: numWorkers, queueSize: queueSize, workers: make([]*worker, numWorkers), log: log}
}

// Start launches all workers; they run until ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{id: i, jobQueue: make(chan Job, p.queueSize), ctx: workerCtx, cancel: cancel, pool: p}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	p.log.WithField("workers", p.numWorkers).Info("dispatch pool started")
}

// TryDispatch submits job to its shard's queue without blocking. Returns
// false (and records a drop) if that worker's queue is full or the pool is
// stopped.
func (p *Pool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}
	shard := p.shardFor(job.Channel, job.ChatID)
	atomic.AddInt64(&p.totalDispatched, 1)

	select {
	case p.workers[shard].jobQueue <- job:
		return true
	default:
		atomic.AddInt64(&p.totalDropped, 1)
		p.log.WithFields(logrus.Fields{"shard": shard, "channel": job.Channel}).Warn("dispatch pool: queue full, dropping job")
		return false
	}
}

func (p *Pool) shardFor(channel, chatID string) int {
	h := fnv.New32a()
	h.Write([]byte(channel + "|" + chatID))
	return int(h.Sum32() % uint32(p.numWorkers))
}

// Stop cancels all workers and waits for them to drain.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}
		p.wg.Wait()
		p.log.Info("dispatch pool stopped")
	})
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	active := 0
	for _, w := range p.workers {
		if atomic.LoadInt32(&w.isProcessing) == 1 {
			active++
		}
	}
	return Stats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   active,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			w.process(job)
		case <-w.ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *worker) process(job Job) {
	atomic.StoreInt32(&w.isProcessing, 1)
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			w.pool.log.WithField("panic", r).WithField("worker", w.id).Error("dispatch worker panic")
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()
	if err := job.Handler(w.ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		w.pool.log.WithError(err).WithFields(logrus.Fields{"channel": job.Channel, "worker": w.id}).Error("dispatch job failed")
	}
}

// drain processes whatever remains queued before a cancelled worker exits,
// so an in-flight reply is never silently lost to shutdown timing.
func (w *worker) drain() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&w.pool.totalErrors, 1)
					}
				}()
				_ = job.Handler(w.ctx)
			}()
		default:
			return
		}
	}
}
