package game

import "errors"

var ErrEmptyCatalog = errors.New("catalog needs at least one world with one level")

type LevelDef struct {
	Name      string  `json:"name"`
	Time      float64 `json:"time"`
	Bots      int     `json:"bots"`
	BotSpeed  float64 `json:"botSpeed"`
	SpawnRate float64 `json:"spawnRate"`
}

type WorldDef struct {
	Name   string     `json:"name"`
	Levels []LevelDef `json:"levels"`
}

// DefaultCatalog returns the three built-in worlds. Progression walks it in
// order and wraps to the first world after the last.
func DefaultCatalog() []WorldDef {
	return []WorldDef{
		{
			Name: "Cinder City",
			Levels: []LevelDef{
				{Name: "Heatline Run", Time: 70, Bots: 4, BotSpeed: 36, SpawnRate: 0.6},
				{Name: "Neon Harriers", Time: 80, Bots: 5, BotSpeed: 40, SpawnRate: 0.7},
				{Name: "Ashfall Siege", Time: 90, Bots: 6, BotSpeed: 44, SpawnRate: 0.75},
			},
		},
		{
			Name: "Glacier Surge",
			Levels: []LevelDef{
				{Name: "Frostbite Drift", Time: 80, Bots: 5, BotSpeed: 38, SpawnRate: 0.65},
				{Name: "Aurora Raiders", Time: 90, Bots: 6, BotSpeed: 42, SpawnRate: 0.75},
				{Name: "Polar Rift", Time: 100, Bots: 7, BotSpeed: 46, SpawnRate: 0.8},
			},
		},
		{
			Name: "Solar Rift",
			Levels: []LevelDef{
				{Name: "Helios Gate", Time: 90, Bots: 6, BotSpeed: 40, SpawnRate: 0.7},
				{Name: "Redline Tempest", Time: 100, Bots: 7, BotSpeed: 46, SpawnRate: 0.8},
				{Name: "Supernova Run", Time: 110, Bots: 8, BotSpeed: 50, SpawnRate: 0.85},
			},
		},
	}
}

func validateCatalog(c []WorldDef) error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	for _, w := range c {
		if len(w.Levels) == 0 {
			return ErrEmptyCatalog
		}
	}
	return nil
}
