package models

// FloorConfig describes the spot numbers available on one parking floor.
type FloorConfig struct {
	Floor     int `json:"floor"`
	MinSpot   int `json:"minSpot"`
	MaxSpot   int `json:"maxSpot"`
	SpotCount int `json:"spotCount"`
}

var floorConfigs = []FloorConfig{
	{Floor: 3, MinSpot: 70, MaxSpot: 98, SpotCount: 29},
	{Floor: 4, MinSpot: 99, MaxSpot: 163, SpotCount: 65},
	{Floor: 5, MinSpot: 164, MaxSpot: 228, SpotCount: 65},
	{Floor: 6, MinSpot: 229, MaxSpot: 283, SpotCount: 55},
	{Floor: 7, MinSpot: 284, MaxSpot: 358, SpotCount: 75},
	{Floor: 8, MinSpot: 359, MaxSpot: 420, SpotCount: 62},
}

// FloorConfigs returns a copy of the static floor table.
func FloorConfigs() []FloorConfig {
	out := make([]FloorConfig, len(floorConfigs))
	copy(out, floorConfigs)
	return out
}
