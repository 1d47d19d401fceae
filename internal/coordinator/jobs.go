package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"simfinder/internal/errs"
	"simfinder/internal/indexer"
	"simfinder/internal/logging"
)

// JobState describes where a job is in its lifecycle.
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// JobInfo is a point-in-time snapshot of a job.
type JobInfo struct {
	ID         string    `json:"id"`
	Index      string    `json:"index"`
	Generation uint64    `json:"generation"`
	State      JobState  `json:"state"`
	Processed  int       `json:"processed"`
	Total      int       `json:"total"`
	Hashed     int       `json:"hashed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Event is one entry in a job's progress stream.
type Event struct {
	Type     string            `json:"type"` // "progress", "done", "error"
	Progress *indexer.Progress `json:"progress,omitempty"`
	Result   *indexer.Result   `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Job is one indexing pass tracked by the coordinator.
type Job struct {
	id         uuid.UUID
	index      string
	generation uint64

	mu       sync.Mutex
	state    JobState
	progress indexer.Progress
	errMsg   string
	started  time.Time
	finished time.Time
	subs     []chan Event
	done     bool
}

func newJob(index string, generation uint64) *Job {
	return &Job{
		id:         uuid.New(),
		index:      index,
		generation: generation,
		state:      JobRunning,
		started:    time.Now(),
	}
}

// Info returns the job's current snapshot.
func (j *Job) Info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobInfo{
		ID:         j.id.String(),
		Index:      j.index,
		Generation: j.generation,
		State:      j.state,
		Processed:  j.progress.Processed,
		Total:      j.progress.Total,
		Hashed:     j.progress.Hashed,
		Skipped:    j.progress.Skipped,
		Failed:     j.progress.Failed,
		Error:      j.errMsg,
		StartedAt:  j.started,
		FinishedAt: j.finished,
	}
}

// subscribe attaches a listener. The channel carries progress events
// and closes when the job reaches a terminal state; the terminal
// outcome itself is read from Info afterwards. Subscribing to an
// already-finished job yields a closed channel.
func (j *Job) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		close(ch)
		return ch, func() {}
	}

	j.subs = append(j.subs, ch)
	cancel := func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		for i, sub := range j.subs {
			if sub == ch {
				j.subs = append(j.subs[:i], j.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// update records a progress snapshot and fans it out. A listener that
// cannot keep up loses intermediate snapshots, never the terminal event.
func (j *Job) update(p indexer.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.progress = p
	progress := p
	ev := Event{Type: "progress", Progress: &progress}
	for _, sub := range j.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// finish moves the job to its terminal state and closes all listeners.
func (j *Job) finish(res indexer.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}

	j.finished = time.Now()
	j.progress = indexer.Progress{
		Processed: res.Total,
		Total:     res.Total,
		Hashed:    res.Hashed,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
	}
	if err != nil {
		j.state = JobFailed
		j.errMsg = err.Error()
	} else {
		j.state = JobSucceeded
	}
	j.done = true

	for _, sub := range j.subs {
		close(sub)
	}
	j.subs = nil
}

// TerminalEvent renders a finished job's outcome as a stream event.
func TerminalEvent(info JobInfo) Event {
	if info.State == JobFailed {
		return Event{Type: "error", Error: info.Error}
	}
	res := indexer.Result{
		Total:   info.Total,
		Hashed:  info.Hashed,
		Skipped: info.Skipped,
		Failed:  info.Failed,
	}
	return Event{Type: "done", Result: &res}
}

// StartIndex launches an indexing job for the named store and returns
// immediately with the job's initial snapshot. At most one writer runs
// per store; a second start while one is active reports ErrIndexRunning.
func (c *Coordinator) StartIndex(ctx context.Context, name string) (JobInfo, error) {
	st, err := c.manager.Open(ctx, name)
	if err != nil {
		return JobInfo{}, err
	}
	dir, err := c.sourceDirOf(ctx, st)
	if err != nil {
		return JobInfo{}, err
	}

	if !c.acquireWriter(name) {
		return JobInfo{}, ErrIndexRunning
	}

	c.mu.Lock()
	c.indexGens[name]++
	job := newJob(name, c.indexGens[name])
	c.jobs[job.id] = job
	c.jobOrder = append(c.jobOrder, job.id)
	c.evictOldJobsLocked()
	c.mu.Unlock()

	ix := indexer.New(st, dir, c.indexConfig)
	if c.monitor != nil {
		ix.SetMemoryMonitor(c.monitor)
	}
	ix.SetProgressFunc(job.update)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		logging.Info("Job %s: indexing %s (generation %d)", job.id, name, job.generation)
		res, err := ix.Run(c.ctx)
		if err != nil {
			logging.Error("Job %s failed: %v", job.id, err)
		} else {
			c.manager.RecordCountHint(name, res.Total-res.Failed)
		}

		// Release before the terminal transition so a caller that
		// observes the finished job can immediately take the writer.
		c.releaseWriter(name)
		job.finish(res, err)
	}()

	return job.Info(), nil
}

// RunningJobs reports how many indexing jobs are currently active.
func (c *Coordinator) RunningJobs() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	running := 0
	for _, job := range c.jobs {
		if job.Info().State == JobRunning {
			running++
		}
	}
	return running
}

// GetJob returns the snapshot for a job id.
func (c *Coordinator) GetJob(id string) (JobInfo, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return JobInfo{}, errs.NotFound(id)
	}

	c.mu.Lock()
	job, ok := c.jobs[parsed]
	c.mu.Unlock()
	if !ok {
		return JobInfo{}, errs.NotFound(id)
	}
	return job.Info(), nil
}

// SubscribeJob attaches to a job's event stream. The returned cancel
// function must be called when the listener is done.
func (c *Coordinator) SubscribeJob(id string) (<-chan Event, func(), error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, errs.NotFound(id)
	}

	c.mu.Lock()
	job, ok := c.jobs[parsed]
	c.mu.Unlock()
	if !ok {
		return nil, nil, errs.NotFound(id)
	}

	ch, cancel := job.subscribe()
	return ch, cancel, nil
}

// evictOldJobsLocked trims terminal jobs beyond the retention window.
// Callers hold c.mu.
func (c *Coordinator) evictOldJobsLocked() {
	for len(c.jobOrder) > jobRetention {
		oldest := c.jobOrder[0]
		job, ok := c.jobs[oldest]
		if ok {
			job.mu.Lock()
			terminal := job.done
			job.mu.Unlock()
			if !terminal {
				// Never evict a running job; retention can briefly
				// overshoot instead.
				return
			}
			delete(c.jobs, oldest)
		}
		c.jobOrder = c.jobOrder[1:]
	}
}
