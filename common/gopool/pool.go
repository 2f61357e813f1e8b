package gopool

import (
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

var (
	// Init a instance pool when importing ants.
	defaultPool, _   = ants.NewPool(ants.DefaultAntsPoolSize, ants.WithExpiryDuration(10*time.Second))
	minNumberPerTask = 5
)

// Submit submits a task to pool.
func Submit(task func()) error {
	return defaultPool.Submit(task)
}

// Running returns the number of the currently running goroutines.
func Running() int {
	return defaultPool.Running()
}

// Cap returns the capacity of this default pool.
func Cap() int {
	return defaultPool.Cap()
}

// Free returns the available goroutines to work.
func Free() int {
	return defaultPool.Free()
}

// Release Closes the default pool.
func Release() {
	defaultPool.Release()
}

// Reboot reboots the default pool.
func Reboot() {
	defaultPool.Reboot()
}

// Threads returns the number of workers worth starting for tasks, bounded by
// the number of CPUs.
func Threads(tasks int) int {
	threads := tasks / minNumberPerTask
	if threads > runtime.NumCPU() {
		threads = runtime.NumCPU()
	} else if threads == 0 {
		threads = 1
	}
	return threads
}

// Group runs a batch of tasks on a pool and waits for all of them.
type Group struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

// NewGroup creates a group backed by a dedicated pool of size workers. Submit
// blocks while every worker is busy.
func NewGroup(size int) (*Group, error) {
	pool, err := ants.NewPool(size, ants.WithExpiryDuration(10*time.Second))
	if err != nil {
		return nil, err
	}
	return &Group{pool: pool}, nil
}

// Go schedules task on the group.
func (g *Group) Go(task func()) error {
	g.wg.Add(1)
	err := g.pool.Submit(func() {
		defer g.wg.Done()
		task()
	})
	if err != nil {
		g.wg.Done()
	}
	return err
}

// Wait blocks until every scheduled task returned and releases the pool.
func (g *Group) Wait() {
	g.wg.Wait()
	g.pool.Release()
}
