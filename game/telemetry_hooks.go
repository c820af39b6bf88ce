package game

import (
	"log/slog"

	"github.com/pthm-cable/chatlife/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (p *Population) flushTelemetry() {
	if !p.collector.ShouldFlush(p.simTime) {
		return
	}

	stats := p.collector.Flush(p.simTime, p.sample())
	perfStats := p.perf.Stats()
	p.lastStats = stats

	// Call stats callback if provided
	if p.statsCallback != nil {
		p.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if p.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := p.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := p.output.WritePerf(perfStats, p.simTime); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	if p.store != nil {
		if err := p.store.SaveWindow(stats); err != nil {
			slog.Error("failed to save window", "error", err)
		}
		p.saveDeaths()
	}
}

// saveDeaths writes buffered death records to the run store.
func (p *Population) saveDeaths() {
	if len(p.deathRecords) == 0 {
		return
	}
	if err := p.store.SaveDeaths(p.deathRecords); err != nil {
		slog.Error("failed to save deaths", "error", err, "count", len(p.deathRecords))
	}
	p.deathRecords = p.deathRecords[:0]
}

// sample observes the world state at the end of a window.
func (p *Population) sample() telemetry.Sample {
	s := telemetry.Sample{
		Tick:          p.tick,
		FoodCount:     p.FoodCount(),
		Energy:        p.energy,
		PopulationCap: p.PopulationCap(),
		MaxGeneration: p.maxGeneration,
		Weather:       p.env.Weather.Current.String(),
		Particles:     p.particles.Count(),
	}
	if p.env.Events.Active {
		s.Event = p.env.Events.Current.String()
	}

	lineages := make(map[string]struct{})
	query := p.orgFilter.Query()
	for query.Next() {
		_, _, org := query.Get()
		if !org.Alive {
			continue
		}
		if org.IsPredator() {
			s.PredCount++
			s.PredHealth = append(s.PredHealth, org.Health)
			continue
		}
		s.PreyCount++
		s.PreyHealth = append(s.PreyHealth, org.Health)
		s.Sizes = append(s.Sizes, org.Size)
		lineages[org.Lineage] = struct{}{}
		if org.IsChatter {
			s.Chatters++
		}
	}
	s.Lineages = len(lineages)
	return s
}
