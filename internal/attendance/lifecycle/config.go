package lifecycle

// Config aggregates behavioural parameters of the attendance engine.
type Config struct {
	// DefaultCheckInWindowMinutes applies when an activity has no positive
	// check-in window configured.
	DefaultCheckInWindowMinutes int
	// DefaultCheckOutWindowMinutes applies when an activity has no positive
	// check-out window configured.
	DefaultCheckOutWindowMinutes int
	// ProvisionalScore is written at check-in. It is not authoritative until
	// the record is completed.
	ProvisionalScore float64
}

// DefaultConfig returns the stock engine parameters.
func DefaultConfig() Config {
	return Config{
		DefaultCheckInWindowMinutes:  10,
		DefaultCheckOutWindowMinutes: 10,
		ProvisionalScore:             1,
	}
}
