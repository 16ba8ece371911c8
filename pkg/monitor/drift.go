package monitor

// Drift is the per-tick displacement applied to the stray member, in degrees
type Drift struct {
	DLat float64
	DLng float64
}

// DriftSimulator walks one member away from the group a fixed step per tick
type DriftSimulator struct{}

// Step moves stray by drift. A stray without a position is skipped, since
// membership can change between arming and the tick; the result reports
// whether a move happened.
func (DriftSimulator) Step(store *PositionStore, stray string, drift Drift) bool {
	pos, err := store.Get(stray)
	if err != nil {
		return false
	}
	store.Set(stray, pos.Offset(drift.DLat, drift.DLng))
	return true
}
