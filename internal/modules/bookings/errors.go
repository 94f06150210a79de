package bookings

import "fmt"

// OverCapacityError carries the numbers the caller needs to decide whether
// a retry with a smaller party could succeed.
type OverCapacityError struct {
	SessionID   string
	MaxCapacity int
	Consumed    int
	Requested   int
}

func (e *OverCapacityError) Error() string {
	return fmt.Sprintf("over capacity: session=%s max=%d consumed=%d requested=%d",
		e.SessionID, e.MaxCapacity, e.Consumed, e.Requested)
}
