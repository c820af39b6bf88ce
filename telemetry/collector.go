package telemetry

import (
	"github.com/pthm-cable/chatlife/components"
)

// Collector accumulates events within sim-time windows and produces WindowStats.
// Ticks have variable length, so windows are measured in simulated seconds.
type Collector struct {
	windowSec float64

	windowStart float64
	windowTicks int

	preyBirths    int
	predBirths    int
	preyDeaths    int
	predDeaths    int
	attacks       int
	kills         int
	foodEaten     int
	foodSpawned   int
	chatMessages  int
	commands      int
	droppedCmds   int
	weatherShifts int
	eventsStarted int
}

// NewCollector creates a collector that flushes every windowSec simulated seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(role components.Role) {
	if role == components.RolePredator {
		c.predBirths++
	} else {
		c.preyBirths++
	}
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(role components.Role) {
	if role == components.RolePredator {
		c.predDeaths++
	} else {
		c.preyDeaths++
	}
}

// RecordAttack records a predator strike and whether it killed.
func (c *Collector) RecordAttack(killed bool) {
	c.attacks++
	if killed {
		c.kills++
	}
}

// RecordFoodEaten records a pellet consumed by prey.
func (c *Collector) RecordFoodEaten() {
	c.foodEaten++
}

// RecordFoodSpawned records n pellets added to the world.
func (c *Collector) RecordFoodSpawned(n int) {
	c.foodSpawned += n
}

// RecordChatMessage records an accepted chat message.
func (c *Collector) RecordChatMessage() {
	c.chatMessages++
}

// RecordCommand records a command applied at a tick boundary.
func (c *Collector) RecordCommand() {
	c.commands++
}

// RecordDroppedCommand records a command rejected by the queue limit.
func (c *Collector) RecordDroppedCommand() {
	c.droppedCmds++
}

// RecordWeatherShift records a completed weather transition.
func (c *Collector) RecordWeatherShift() {
	c.weatherShifts++
}

// RecordEventStart records the start of a random world event.
func (c *Collector) RecordEventStart() {
	c.eventsStarted++
}

// Tick advances the tick counter for the current window.
func (c *Collector) Tick() {
	c.windowTicks++
}

// ShouldFlush returns true once the window has covered windowSec of sim time.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStart >= c.windowSec
}

// Sample is the world state observed at the end of a window.
type Sample struct {
	Tick          int
	PreyCount     int
	PredCount     int
	FoodCount     int
	Energy        float64
	PopulationCap int
	PreyHealth    []float64
	PredHealth    []float64
	Sizes         []float64
	MaxGeneration int
	Lineages      int
	Chatters      int
	Weather       string
	Event         string
	Particles     int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(simTime float64, s Sample) WindowStats {
	var killRate float64
	if c.attacks > 0 {
		killRate = float64(c.kills) / float64(c.attacks)
	}

	preyDist := ComputeDistribution(s.PreyHealth)
	predDist := ComputeDistribution(s.PredHealth)
	sizeDist := ComputeDistribution(s.Sizes)

	stats := WindowStats{
		WindowStart: c.windowStart,
		SimTimeSec:  simTime,
		Tick:        s.Tick,
		Ticks:       c.windowTicks,

		PreyCount:     s.PreyCount,
		PredCount:     s.PredCount,
		FoodCount:     s.FoodCount,
		Energy:        s.Energy,
		PopulationCap: s.PopulationCap,

		PreyBirths: c.preyBirths,
		PredBirths: c.predBirths,
		PreyDeaths: c.preyDeaths,
		PredDeaths: c.predDeaths,

		Attacks:  c.attacks,
		Kills:    c.kills,
		KillRate: killRate,

		FoodEaten:   c.foodEaten,
		FoodSpawned: c.foodSpawned,

		ChatMessages:    c.chatMessages,
		Commands:        c.commands,
		DroppedCommands: c.droppedCmds,

		PreyHealthMean: preyDist.Mean,
		PreyHealthStd:  preyDist.Std,
		PreyHealthP10:  preyDist.P10,
		PreyHealthP50:  preyDist.P50,
		PreyHealthP90:  preyDist.P90,
		PredHealthMean: predDist.Mean,
		PredHealthP50:  predDist.P50,
		SizeMean:       sizeDist.Mean,
		SizeP90:        sizeDist.P90,

		MaxGeneration: s.MaxGeneration,
		Lineages:      s.Lineages,
		Chatters:      s.Chatters,

		Weather:       s.Weather,
		WeatherShifts: c.weatherShifts,
		Event:         s.Event,
		EventsStarted: c.eventsStarted,
		Particles:     s.Particles,
	}

	*c = Collector{windowSec: c.windowSec, windowStart: simTime}
	return stats
}

// WindowSec returns the window length in simulated seconds.
func (c *Collector) WindowSec() float64 {
	return c.windowSec
}
