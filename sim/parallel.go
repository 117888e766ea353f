package sim

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/physarum/agent"
)

// defaultParallelThreshold is used when the configured threshold is zero.
// Below it, goroutine handoff costs more than it saves.
const defaultParallelThreshold = 2048

// agentSnapshot is one agent's working copy during a deferred step.
type agentSnapshot struct {
	Entity  ecs.Entity
	Index   int
	Old     agent.Position
	Pos     agent.Position
	Heading agent.Heading
	Traits  agent.Traits
	Sensors agent.Sensors
	Stream  agent.Stream
	Bounced bool
	Turn    agent.Turn
}

// workChunk is a range of snapshots for one worker.
type workChunk struct {
	start, end int
}

// parallelState holds the persistent worker pool for deferred steps.
type parallelState struct {
	snapshots  []agentSnapshot
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *parallelState) worker(s *Simulation) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// stepDeferred senses against the field as it stood at the start of the
// step. Moves, sensing and steering run in parallel on snapshots; occupancy
// commits and deposits are then applied in creation order, so the outcome
// does not depend on the worker count.
func (s *Simulation) stepDeferred(stats *StepStats) {
	p := s.parallel

	// Phase A: build snapshots (single-threaded)
	p.snapshots = p.snapshots[:0]
	query := s.agentFilter.Query()
	for query.Next() {
		pos, head, traits, sensors, stream, id := query.Get()
		p.snapshots = append(p.snapshots, agentSnapshot{
			Entity:  query.Entity(),
			Index:   id.Index,
			Old:     *pos,
			Pos:     *pos,
			Heading: *head,
			Traits:  *traits,
			Sensors: *sensors,
			Stream:  *stream,
		})
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	// Phase B: compute
	if n < p.threshold || p.numWorkers <= 1 {
		s.computeChunk(0, n)
	} else {
		s.computeParallel(n)
	}

	// Phase C: apply (single-threaded, creation order)
	s.applySnapshots(stats)
}

// computeParallel dispatches work to the worker pool and waits.
func (s *Simulation) computeParallel(n int) {
	p := s.parallel
	if !p.running {
		p.startWorkers(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk moves and steers snapshots [i0, i1). It only reads the
// field, which is not written until the apply phase.
func (s *Simulation) computeChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		snap := &s.parallel.snapshots[i]
		snap.Bounced = s.move(&snap.Pos, &snap.Heading, &snap.Traits, &snap.Stream)
		snap.Sensors = agent.SensorCells(snap.Pos, snap.Heading.Angle, snap.Traits, s.width, s.height, s.boundary)
		if snap.Bounced {
			snap.Turn = agent.Straight
			continue
		}
		snap.Turn = s.steer(&snap.Heading, &snap.Traits, &snap.Sensors, &snap.Stream)
	}
}

// applySnapshots commits occupancy, deposits trail and writes results back
// to the agent components.
func (s *Simulation) applySnapshots(stats *StepStats) {
	for i := range s.parallel.snapshots {
		snap := &s.parallel.snapshots[i]
		suppressed := snap.Bounced
		if snap.Bounced {
			stats.Bounces++
		}

		if s.occ != nil && !s.commitCell(snap.Old, &snap.Pos, &snap.Heading, &snap.Stream, snap.Index, snap.Bounced) {
			stats.Collisions++
			suppressed = true
			snap.Turn = agent.Straight
			snap.Sensors = agent.SensorCells(snap.Pos, snap.Heading.Angle, snap.Traits, s.width, s.height, s.boundary)
		} else {
			stats.Moves++
		}

		if !suppressed {
			c := snap.Pos.Cell()
			s.field.Add(c.X, c.Y, snap.Traits.Deposit)
			stats.Deposits++
		}
		stats.countTurn(snap.Turn)

		pos, head, _, sensors, stream, _ := s.agentMapper.Get(snap.Entity)
		*pos = snap.Pos
		*head = snap.Heading
		*sensors = snap.Sensors
		*stream = snap.Stream
	}
}
