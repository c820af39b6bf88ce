package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStart float64 `csv:"-"`
	SimTimeSec  float64 `csv:"sim_time"`
	Tick        int     `csv:"tick"`
	Ticks       int     `csv:"ticks"`

	// Populations at window end
	PreyCount     int     `csv:"prey"`
	PredCount     int     `csv:"pred"`
	FoodCount     int     `csv:"food"`
	Energy        float64 `csv:"energy"`
	PopulationCap int     `csv:"cap"`

	// Events during window
	PreyBirths int `csv:"prey_births"`
	PredBirths int `csv:"pred_births"`
	PreyDeaths int `csv:"prey_deaths"`
	PredDeaths int `csv:"pred_deaths"`

	// Hunting
	Attacks  int     `csv:"attacks"`
	Kills    int     `csv:"kills"`
	KillRate float64 `csv:"kill_rate"`

	// Food
	FoodEaten   int `csv:"food_eaten"`
	FoodSpawned int `csv:"food_spawned"`

	// Chat
	ChatMessages    int `csv:"chat_messages"`
	Commands        int `csv:"commands"`
	DroppedCommands int `csv:"dropped_commands"`

	// Health distribution (sampled at window end)
	PreyHealthMean float64 `csv:"prey_health_mean"`
	PreyHealthStd  float64 `csv:"prey_health_std"`
	PreyHealthP10  float64 `csv:"prey_health_p10"`
	PreyHealthP50  float64 `csv:"prey_health_p50"`
	PreyHealthP90  float64 `csv:"prey_health_p90"`
	PredHealthMean float64 `csv:"pred_health_mean"`
	PredHealthP50  float64 `csv:"pred_health_p50"`

	SizeMean float64 `csv:"size_mean"`
	SizeP90  float64 `csv:"size_p90"`

	// Lineage tracking
	MaxGeneration int `csv:"max_generation"`
	Lineages      int `csv:"lineages"`
	Chatters      int `csv:"chatters"`

	// Environment
	Weather       string `csv:"weather"`
	WeatherShifts int    `csv:"weather_shifts"`
	Event         string `csv:"event"`
	EventsStarted int    `csv:"events_started"`
	Particles     int    `csv:"particles"`
}

// Distribution summarizes a sample of values.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, sample standard deviation and
// percentiles. The input is not modified.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	var d Distribution
	if n == 1 {
		d.Mean = values[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	d.P10 = Percentile(sorted, 0.10)
	d.P50 = Percentile(sorted, 0.50)
	d.P90 = Percentile(sorted, 0.90)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("tick", s.Tick),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("food", s.FoodCount),
		slog.Float64("energy", s.Energy),
		slog.Int("cap", s.PopulationCap),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Int("attacks", s.Attacks),
		slog.Int("kills", s.Kills),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("chat_messages", s.ChatMessages),
		slog.Int("dropped_commands", s.DroppedCommands),
		slog.Float64("prey_health_mean", s.PreyHealthMean),
		slog.Float64("prey_health_p50", s.PreyHealthP50),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Int("lineages", s.Lineages),
		slog.String("weather", s.Weather),
		slog.String("event", s.Event),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"sim_time", s.SimTimeSec,
		"tick", s.Tick,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"food", s.FoodCount,
		"energy", s.Energy,
		"cap", s.PopulationCap,
		"prey_births", s.PreyBirths,
		"pred_births", s.PredBirths,
		"prey_deaths", s.PreyDeaths,
		"pred_deaths", s.PredDeaths,
		"attacks", s.Attacks,
		"kills", s.Kills,
		"kill_rate", s.KillRate,
		"food_eaten", s.FoodEaten,
		"food_spawned", s.FoodSpawned,
		"chat_messages", s.ChatMessages,
		"commands", s.Commands,
		"dropped_commands", s.DroppedCommands,
		"prey_health_mean", s.PreyHealthMean,
		"prey_health_std", s.PreyHealthStd,
		"prey_health_p10", s.PreyHealthP10,
		"prey_health_p50", s.PreyHealthP50,
		"prey_health_p90", s.PreyHealthP90,
		"pred_health_mean", s.PredHealthMean,
		"size_mean", s.SizeMean,
		"size_p90", s.SizeP90,
		"max_generation", s.MaxGeneration,
		"lineages", s.Lineages,
		"chatters", s.Chatters,
		"weather", s.Weather,
		"event", s.Event,
		"particles", s.Particles,
	)
}
