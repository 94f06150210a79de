// Package capacity computes session seat availability. Both policies are
// always reported side by side: best case counts only confirmed heads,
// worst case also reserves pending ones. The UI decides which to foreground.
package capacity

const (
	ModeShoreUnlimited = "shore_unlimited"
	ModeVesselLimited  = "vessel_limited"
)

type View struct {
	Mode              string `json:"mode"`
	MaxCapacity       *int   `json:"max_capacity"`
	ConfirmedHeads    int    `json:"confirmed_heads"`
	PendingHeads      int    `json:"pending_heads"`

	// nil when unbounded; negative when oversold (never clamped)
	AvailableIfConfirmedOnly   *int `json:"available_if_confirmed_only"`
	AvailableIfPendingReserved *int `json:"available_if_pending_reserved"`

	IsOverCapacityConfirmedOnly bool `json:"is_over_capacity_confirmed_only"`
	IsOverCapacityWithPending   bool `json:"is_over_capacity_with_pending"`
}

// Compute derives the dual availability view. A nil maxCapacity means a
// shore session: unbounded, all derived fields nil.
func Compute(maxCapacity *int, confirmedHeads, pendingHeads int) View {
	v := View{
		ConfirmedHeads: confirmedHeads,
		PendingHeads:   pendingHeads,
	}

	if maxCapacity == nil {
		v.Mode = ModeShoreUnlimited
		return v
	}

	max := *maxCapacity
	availConfirmed := max - confirmedHeads
	availPending := max - (confirmedHeads + pendingHeads)

	v.Mode = ModeVesselLimited
	v.MaxCapacity = maxCapacity
	v.AvailableIfConfirmedOnly = &availConfirmed
	v.AvailableIfPendingReserved = &availPending
	v.IsOverCapacityConfirmedOnly = confirmedHeads > max
	v.IsOverCapacityWithPending = confirmedHeads+pendingHeads > max
	return v
}
