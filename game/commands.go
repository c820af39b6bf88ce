package game

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/environment"
)

// Command is an external action. Commands are queued from any goroutine
// and applied by the simulation goroutine at the next tick boundary.
type Command interface {
	Apply(p *Population)
}

// AddEnergy adds world energy (negative amounts drain it).
type AddEnergy struct{ Amount float64 }

func (c AddEnergy) Apply(p *Population) {
	if math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) {
		slog.Warn("command_dropped", "command", "add_energy", "reason", "non-finite amount")
		return
	}
	p.AddEnergy(c.Amount)
}

// SpawnChatter spawns an organism on behalf of a chat participant.
type SpawnChatter struct{ Name string }

func (c SpawnChatter) Apply(p *Population) { p.SpawnNamedOrganism(c.Name) }

// ChatMessage records one chat message: it adds Energy and, when Spawn is
// set, spawns an organism named after the sender.
type ChatMessage struct {
	Name   string
	Energy float64
	Spawn  bool
}

func (c ChatMessage) Apply(p *Population) {
	p.collector.RecordChatMessage()
	p.AddEnergy(c.Energy)
	if c.Spawn {
		p.SpawnNamedOrganism(c.Name)
	}
}

// SpawnFood drops a batch of food at random positions.
type SpawnFood struct{ Count int }

func (c SpawnFood) Apply(p *Population) { p.SpawnFoodBatch(c.Count) }

// AreaDamage damages every organism within Radius of (X, Y), falling off
// linearly from MaxDamage at the centre.
type AreaDamage struct{ X, Y, Radius, MaxDamage float64 }

func (c AreaDamage) Apply(p *Population) { p.AreaDamage(c.X, c.Y, c.Radius, c.MaxDamage) }

// HealAll restores every living organism to full health.
type HealAll struct{}

func (HealAll) Apply(p *Population) { p.HealAll() }

// SpawnOrganisms adds Count prey with vote names, ignoring the cap.
type SpawnOrganisms struct{ Count int }

func (c SpawnOrganisms) Apply(p *Population) { p.SpawnOrganisms(c.Count) }

// ApplyConfig replaces the active configuration if it validates.
type ApplyConfig struct{ Config *config.Config }

func (c ApplyConfig) Apply(p *Population) { p.ApplyConfig(c.Config) }

// StartEvent begins a world event immediately, replacing any active one.
type StartEvent struct{ Event environment.EventType }

func (c StartEvent) Apply(p *Population) { p.TriggerEvent(c.Event) }

// RegenerateBiomes rebuilds the biome layout.
type RegenerateBiomes struct{}

func (RegenerateBiomes) Apply(p *Population) { p.RegenerateBiomes() }

// Announce forwards a notification through the population's hooks, so
// collaborators on other goroutines can surface messages in tick order.
type Announce struct{ Notification Notification }

func (c Announce) Apply(p *Population) { p.notify(c.Notification) }

type queuedCommand struct {
	actor string
	cmd   Command
}

// commandQueue is a mutex-protected FIFO with a per-actor pending limit.
type commandQueue struct {
	mu       sync.Mutex
	pending  []queuedCommand
	perActor map[string]int
	limit    int
	dropped  int
}

func newCommandQueue(limit int) *commandQueue {
	return &commandQueue{perActor: make(map[string]int), limit: limit}
}

func (q *commandQueue) push(actor string, cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit > 0 && q.perActor[actor] >= q.limit {
		q.dropped++
		return false
	}
	q.perActor[actor]++
	q.pending = append(q.pending, queuedCommand{actor: actor, cmd: cmd})
	return true
}

// drain removes and returns every pending command plus the number dropped
// since the last drain.
func (q *commandQueue) drain() ([]queuedCommand, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	dropped := q.dropped
	q.pending = nil
	q.dropped = 0
	clear(q.perActor)
	return out, dropped
}

func (q *commandQueue) setLimit(limit int) {
	q.mu.Lock()
	q.limit = limit
	q.mu.Unlock()
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Enqueue queues a command from the named actor. It is safe to call from
// any goroutine. Returns false if the actor already has the maximum number
// of pending commands; the command is dropped and counted.
func (p *Population) Enqueue(actor string, cmd Command) bool {
	if cmd == nil {
		return false
	}
	return p.queue.push(actor, cmd)
}

// Pending returns the number of queued commands.
func (p *Population) Pending() int {
	return p.queue.len()
}

// applyCommands drains the queue in FIFO order and returns how many
// commands were applied.
func (p *Population) applyCommands() int {
	cmds, dropped := p.queue.drain()
	for range dropped {
		p.collector.RecordDroppedCommand()
	}
	if dropped > 0 {
		slog.Warn("commands_dropped", "count", dropped)
	}
	for _, qc := range cmds {
		qc.cmd.Apply(p)
		p.collector.RecordCommand()
	}
	return len(cmds)
}
