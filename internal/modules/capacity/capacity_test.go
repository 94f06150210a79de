package capacity

import "testing"

func TestCompute_VesselLimited(t *testing.T) {
	max := 18
	v := Compute(&max, 16, 4)

	if v.Mode != ModeVesselLimited {
		t.Fatalf("mode = %q, want %q", v.Mode, ModeVesselLimited)
	}
	if v.AvailableIfConfirmedOnly == nil || *v.AvailableIfConfirmedOnly != 2 {
		t.Errorf("available_if_confirmed_only = %v, want 2", v.AvailableIfConfirmedOnly)
	}
	if v.IsOverCapacityConfirmedOnly {
		t.Error("is_over_capacity_confirmed_only = true, want false")
	}
	if v.AvailableIfPendingReserved == nil || *v.AvailableIfPendingReserved != -2 {
		t.Errorf("available_if_pending_reserved = %v, want -2", v.AvailableIfPendingReserved)
	}
	if !v.IsOverCapacityWithPending {
		t.Error("is_over_capacity_with_pending = false, want true")
	}
}

func TestCompute_OverCapacityBothPolicies(t *testing.T) {
	max := 10
	v := Compute(&max, 12, 1)

	if !v.IsOverCapacityConfirmedOnly || !v.IsOverCapacityWithPending {
		t.Error("expected both over-capacity flags set")
	}
	if *v.AvailableIfConfirmedOnly != -2 {
		t.Errorf("available_if_confirmed_only = %d, want -2 (not clamped)", *v.AvailableIfConfirmedOnly)
	}
}

func TestCompute_ExactlyFull(t *testing.T) {
	max := 12
	v := Compute(&max, 12, 0)

	if v.IsOverCapacityConfirmedOnly {
		t.Error("a full boat is not over capacity")
	}
	if *v.AvailableIfConfirmedOnly != 0 {
		t.Errorf("available = %d, want 0", *v.AvailableIfConfirmedOnly)
	}
}

func TestCompute_ShoreUnlimited(t *testing.T) {
	v := Compute(nil, 40, 15)

	if v.Mode != ModeShoreUnlimited {
		t.Fatalf("mode = %q, want %q", v.Mode, ModeShoreUnlimited)
	}
	if v.MaxCapacity != nil || v.AvailableIfConfirmedOnly != nil || v.AvailableIfPendingReserved != nil {
		t.Error("unbounded sessions must report nil derived fields")
	}
	if v.IsOverCapacityConfirmedOnly || v.IsOverCapacityWithPending {
		t.Error("unbounded sessions can never be over capacity")
	}
	if v.ConfirmedHeads != 40 || v.PendingHeads != 15 {
		t.Error("head counts must pass through unchanged")
	}
}
