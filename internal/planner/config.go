package planner

// Config toggles planner features. Every experiment is a flag here rather
// than a separate scheduler.
type Config struct {
	UseHardConstraints bool // age, energy and weather checks
	UseWeather         bool
	UseBudget          bool // soft daily cap with SCORE_THRESHOLD fallback
	UseMeals           bool // seed meals and reconcile them around anchors
	UseBasePlan        bool // beam-search coverage pass before the greedy loop
	UseRepairB         bool
	UseEnergy          bool
	DebugPrint         bool // log every placement decision at info level

	MaxMoves     int  // relocations RepairB tries per blocking event
	TryOthers    bool // let RepairB move events other than the direct conflict
	BeamWidth    int
	AllowRepeats bool // allow an activity on more than one day of a trip
}

// DefaultConfig enables every feature with the standard tunables
func DefaultConfig() Config {
	return Config{
		UseHardConstraints: true,
		UseWeather:         true,
		UseBudget:          true,
		UseMeals:           true,
		UseBasePlan:        true,
		UseRepairB:         true,
		UseEnergy:          false,
		MaxMoves:           1,
		TryOthers:          true,
		BeamWidth:          8,
	}
}

func (c Config) maxMoves() int {
	if c.MaxMoves < 1 {
		return 1
	}
	return c.MaxMoves
}

func (c Config) beamWidth() int {
	if c.BeamWidth < 1 {
		return 8
	}
	return c.BeamWidth
}
