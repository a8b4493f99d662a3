package control

// Mode is the controller memory carried across integration steps.
// It is the only mutable control state in a run.
type Mode struct {
	ChillerOn  bool
	FanLevel   int
	CabinLevel int
}
