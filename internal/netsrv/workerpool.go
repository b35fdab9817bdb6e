package netsrv

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds how many pending connections can queue for a
// worker before Accept blocks on AddTask.
const taskChanSize = 100

// WorkerFunc processes one queued task (a net.Conn, in this adapter).
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines pulling tasks off a
// shared channel, supervised by a tomb.Tomb so the whole pool winds down
// together on shutdown. Adapted from the teacher's internal/worker.go.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool constructs a pool of size n workers.
func NewWorkerPool(n int) WorkerPool {
	return WorkerPool{n: n, tasks: make(chan any, taskChanSize)}
}

// AddTask enqueues a task for a worker to pick up.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Setup spawns the pool's workers under t, each running work against
// tasks until t is dying.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.runWorker(t, work)
		})
	}
}

func (p *WorkerPool) runWorker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
