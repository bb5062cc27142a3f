package sim

import (
	"math"

	"github.com/pthm-cable/vivarium/systems"
)

// foodCluster is a drifting spawn center. Drift direction is sampled from
// smooth noise so clusters wander instead of jittering.
type foodCluster struct {
	X, Y float32
	seed float64
}

// initWater places the persistent water sources.
func (s *Simulation) initWater() {
	r := float32(s.cfg.World.WaterRadius)
	for i := 0; i < s.cfg.World.WaterSources; i++ {
		s.waters = append(s.waters, Water{
			X:      s.rng.Float32() * s.cfg.Derived.WorldW32,
			Y:      s.rng.Float32() * s.cfg.Derived.WorldH32,
			Radius: r,
		})
	}
}

// initClusters places the food spawn centers.
func (s *Simulation) initClusters() {
	for i := 0; i < s.cfg.Food.Clusters; i++ {
		s.clusters = append(s.clusters, foodCluster{
			X:    s.rng.Float32() * s.cfg.Derived.WorldW32,
			Y:    s.rng.Float32() * s.cfg.Derived.WorldH32,
			seed: float64(i) * 37.0,
		})
	}
}

// initFood seeds the starting food supply.
func (s *Simulation) initFood() {
	for i := 0; i < s.cfg.Food.InitialCount; i++ {
		s.spawnFood()
	}
}

// spawnFood adds one food item near a random cluster center, reusing freed
// slots so the food slice stays compact over long runs.
func (s *Simulation) spawnFood() {
	if s.foodCount >= s.cfg.Food.MaxCount {
		return
	}
	c := &s.clusters[s.rng.Intn(len(s.clusters))]
	sigma := float32(s.cfg.Food.ClusterSigma)
	x := c.X + float32(s.rng.NormFloat64())*sigma
	y := c.Y + float32(s.rng.NormFloat64())*sigma
	x, y = s.confine(x, y)

	f := Food{
		X:      x,
		Y:      y,
		Energy: float32(s.cfg.Food.EnergyValue),
		TTL:    float32(s.cfg.Food.LifetimeSec),
		Alive:  true,
	}

	if n := len(s.foodFree); n > 0 {
		idx := s.foodFree[n-1]
		s.foodFree = s.foodFree[:n-1]
		s.foods[idx] = f
	} else {
		s.foods = append(s.foods, f)
	}
	s.foodCount++
}

// removeFood frees a food slot.
func (s *Simulation) removeFood(idx int) {
	if !s.foods[idx].Alive {
		return
	}
	s.foods[idx].Alive = false
	s.foodFree = append(s.foodFree, idx)
	s.foodCount--
}

// updateFeeding transfers energy from in-range food and runs the hydration
// balance against the nearest water source.
func (s *Simulation) updateFeeding(dt float32) {
	feedRadius := float32(s.cfg.Food.FeedRadius)
	feedRate := float32(s.cfg.Food.FeedRate)
	maxEnergy := float32(s.cfg.Energy.Max)
	maxHydration := float32(s.cfg.Hydration.Max)
	drain := float32(s.cfg.Hydration.Drain)
	refill := float32(s.cfg.Hydration.RefillRate)
	drinkRange := float32(s.cfg.Hydration.DrinkRange)

	query := s.agentFilter.Query()
	for query.Next() {
		pos, _, _, _, vitals, _, ag := query.Get()

		if !vitals.Alive {
			continue
		}

		// Feeding: drain the nearest in-range food item.
		if vitals.Energy < maxEnergy {
			if n, ok := s.foodGrid.QueryNearest(pos.X, pos.Y, feedRadius, -1); ok {
				food := &s.foods[n.Item]
				if food.Alive {
					gain := feedRate * dt
					if gain > food.Energy {
						gain = food.Energy
					}
					if vitals.Energy+gain > maxEnergy {
						gain = maxEnergy - vitals.Energy
					}
					vitals.Energy += gain
					food.Energy -= gain
					if gain > 0 {
						s.collector.RecordFeed()
					}
					if food.Energy <= 0 {
						s.removeFood(n.Item)
					}
				}
			}
		}

		// Hydration: constant drain, countered near water.
		edge := s.nearestWaterEdge(pos.X, pos.Y)
		before := vitals.Hydration
		vitals.Hydration += systems.HydrationDelta(drain, refill, edge, drinkRange, dt)
		if vitals.Hydration > maxHydration {
			vitals.Hydration = maxHydration
		}
		if vitals.Hydration > before {
			s.collector.RecordDrink()
		}
		if vitals.Hydration <= 0 {
			vitals.Hydration = 0
			vitals.Alive = false
			ag.DeathCause = deathDehydrated
		}
	}
}

// nearestWaterEdge returns the distance from a point to the closest water
// source edge; negative inside a source, +Inf with no sources.
func (s *Simulation) nearestWaterEdge(x, y float32) float32 {
	best := float32(math.Inf(1))
	for i := range s.waters {
		w := &s.waters[i]
		dx, dy := s.delta(x, y, w.X, w.Y)
		if e := sqrtf(dx*dx+dy*dy) - w.Radius; e < best {
			best = e
		}
	}
	return best
}

// updateFoodSupply expires old food, drifts the spawn clusters, and spawns
// new items from the accumulated spawn budget. Runs during Cleanup.
func (s *Simulation) updateFoodSupply(dt float32) {
	for i := range s.foods {
		if !s.foods[i].Alive {
			continue
		}
		s.foods[i].TTL -= dt
		if s.foods[i].TTL <= 0 {
			s.removeFood(i)
		}
	}

	drift := float32(s.cfg.Food.DriftSpeed) * dt
	if drift > 0 {
		for i := range s.clusters {
			c := &s.clusters[i]
			angle := s.noise.Eval2(s.simTime*0.05, c.seed) * 2 * math.Pi
			c.X += cosf(float32(angle)) * drift
			c.Y += sinf(float32(angle)) * drift
			c.X, c.Y = s.confine(c.X, c.Y)
		}
	}

	s.foodAccum += s.cfg.Food.SpawnPerSec * float64(dt)
	for s.foodAccum >= 1 {
		s.foodAccum--
		s.spawnFood()
	}
}
