package telemetry

import (
	"math"
	"testing"
)

func TestFlushWindowAggregatesAndResets(t *testing.T) {
	c := NewCollector()

	c.RecordBirth()
	c.RecordBirth()
	c.RecordDeath(DeathStarved)
	c.RecordDeath(DeathKilled)
	c.RecordDeath(DeathKilled)
	c.RecordDeath(DeathDehydrated)
	c.RecordDeath(DeathOldAge)
	c.RecordAttack()
	c.RecordAttack()
	c.RecordAttack()
	c.RecordKill()
	c.RecordFeed()
	c.RecordDrink()
	c.RecordInfection()
	c.RecordRecovery()
	c.RecordSomaticMutation()
	c.RecordPaddedGenome(14)

	sample := PopulationSample{
		Energy:     []float64{10, 20, 30, 40, 50},
		Hydration:  []float64{60, 80},
		Age:        []float64{5},
		Speed:      []float64{40, 60},
		Population: 5,
		Infected:   1,
		FoodCount:  12,
		Generation: 3,
	}
	s := c.FlushWindow(600, 60, sample)

	if s.WindowStartTick != 0 || s.WindowEndTick != 600 || s.SimTimeSec != 60 {
		t.Errorf("window bounds = [%d, %d] at %f", s.WindowStartTick, s.WindowEndTick, s.SimTimeSec)
	}
	if s.Population != 5 || s.Infected != 1 || s.FoodCount != 12 || s.Generation != 3 {
		t.Errorf("sample state not carried: %+v", s)
	}

	if s.Births != 2 {
		t.Errorf("births = %d, want 2", s.Births)
	}
	if s.DeathsStarved != 1 || s.DeathsKilled != 2 || s.DeathsDehydated != 1 || s.DeathsOldAge != 1 {
		t.Errorf("death breakdown wrong: %+v", s)
	}
	if s.Deaths() != 5 {
		t.Errorf("Deaths() = %d, want 5", s.Deaths())
	}
	if s.Attacks != 3 || s.Kills != 1 || s.Feeds != 1 {
		t.Errorf("combat counters wrong: %+v", s)
	}
	if s.Infections != 1 || s.Recoveries != 1 || s.SomaticMuts != 1 || s.PaddedGenomes != 14 {
		t.Errorf("event counters wrong: %+v", s)
	}

	if math.Abs(s.EnergyMean-30) > 1e-9 {
		t.Errorf("energy mean = %f, want 30", s.EnergyMean)
	}
	if s.EnergyP10 != 10 || s.EnergyP50 != 30 || s.EnergyP90 != 50 {
		t.Errorf("energy quantiles = %f/%f/%f", s.EnergyP10, s.EnergyP50, s.EnergyP90)
	}
	if math.Abs(s.HydrationMean-70) > 1e-9 {
		t.Errorf("hydration mean = %f, want 70", s.HydrationMean)
	}
	if s.AgeMean != 5 || s.AgeP50 != 5 {
		t.Errorf("single-sample age = %f/%f, want 5/5", s.AgeMean, s.AgeP50)
	}
	if math.Abs(s.SpeedMean-50) > 1e-9 {
		t.Errorf("speed mean = %f, want 50", s.SpeedMean)
	}

	// Counters reset, next window starts where this one ended.
	next := c.FlushWindow(1200, 120, PopulationSample{})
	if next.WindowStartTick != 600 {
		t.Errorf("next window start = %d, want 600", next.WindowStartTick)
	}
	if next.Births != 0 || next.Deaths() != 0 || next.Attacks != 0 || next.PaddedGenomes != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.EnergyMean != 0 || next.EnergyP50 != 0 {
		t.Errorf("empty sample distributions nonzero: %+v", next)
	}
}
