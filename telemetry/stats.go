package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population state at window end
	Population int `csv:"population"`
	Infected   int `csv:"infected"`
	FoodCount  int `csv:"food"`
	Generation int `csv:"max_generation"`

	// Events during the window
	Births          int `csv:"births"`
	DeathsStarved   int `csv:"deaths_starved"`
	DeathsDehydated int `csv:"deaths_dehydrated"`
	DeathsKilled    int `csv:"deaths_killed"`
	DeathsOldAge    int `csv:"deaths_old_age"`
	Attacks         int `csv:"attacks"`
	Kills           int `csv:"kills"`
	Feeds           int `csv:"feeds"`
	Infections      int `csv:"infections"`
	Recoveries      int `csv:"recoveries"`
	SomaticMuts     int `csv:"somatic_mutations"`
	PaddedGenomes   int `csv:"padded_genomes"`

	// Distributions sampled at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	HydrationMean float64 `csv:"hydration_mean"`
	HydrationP50  float64 `csv:"hydration_p50"`

	AgeMean float64 `csv:"age_mean"`
	AgeP50  float64 `csv:"age_p50"`

	SpeedMean float64 `csv:"speed_trait_mean"`
	SpeedStd  float64 `csv:"speed_trait_std"`
}

// Deaths returns the total deaths in the window across all causes.
func (s WindowStats) Deaths() int {
	return s.DeathsStarved + s.DeathsDehydated + s.DeathsKilled + s.DeathsOldAge
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("infected", s.Infected),
		slog.Int("food", s.FoodCount),
		slog.Int("max_generation", s.Generation),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths()),
		slog.Int("deaths_starved", s.DeathsStarved),
		slog.Int("deaths_dehydrated", s.DeathsDehydated),
		slog.Int("deaths_killed", s.DeathsKilled),
		slog.Int("deaths_old_age", s.DeathsOldAge),
		slog.Int("attacks", s.Attacks),
		slog.Int("kills", s.Kills),
		slog.Int("feeds", s.Feeds),
		slog.Int("infections", s.Infections),
		slog.Int("recoveries", s.Recoveries),
		slog.Int("somatic_mutations", s.SomaticMuts),
		slog.Int("padded_genomes", s.PaddedGenomes),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("hydration_mean", s.HydrationMean),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("speed_trait_mean", s.SpeedMean),
	)
}

// LogStats logs the window stats at Info level.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

func sortFloat64s(v []float64) {
	sort.Float64s(v)
}
