package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/api/metrics"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// Handler processes one file-cleanup job.
type Handler func(ctx context.Context, name string) error

// Dispatcher routes cleanup jobs to a fixed set of workers using hashing on
// the file name, so repeated jobs for one file never run concurrently.
type Dispatcher struct {
	workers []chan string
	handle  Handler
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handle Handler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		handle:  handle,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands name to its worker without blocking. A full worker channel
// drops the job; the file stays on disk.
func (d *Dispatcher) Enqueue(name string) {
	idx := d.shardIndex(name)
	select {
	case d.workers[idx] <- name:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.CleanupJobsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("file", name).Int("worker_id", idx).Msg("cleanup queue full, job dropped")
	}
}

// shardIndex maps a file name deterministically to a worker index.
func (d *Dispatcher) shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-ch:
			if !ok {
				return
			}
			metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.handle(ctx, name); err != nil {
				metrics.CleanupJobsTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("file", name).
					Int("worker_id", id).
					Msg("file cleanup failed")
				continue
			}
			metrics.CleanupJobsTotal.WithLabelValues("ok").Inc()
		}
	}
}
