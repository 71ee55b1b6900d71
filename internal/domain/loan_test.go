package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusBorrowed},
		{StatusPending, StatusRejected},
		{StatusBorrowed, StatusReturnPending},
		{StatusReturnPending, StatusCompleted},
		{StatusReturnPending, StatusCompletedDamaged},
		{StatusReturnPending, StatusCompletedLost},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransition(tt.to) {
			t.Errorf("%s -> %s should be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusReturnPending},
		{StatusPending, StatusCompleted},
		{StatusBorrowed, StatusCompleted},
		{StatusBorrowed, StatusPending},
		{StatusRejected, StatusBorrowed},
		{StatusCompleted, StatusBorrowed},
		{StatusCompletedDamaged, StatusReturnPending},
		{StatusCompletedLost, StatusPending},
	}
	for _, tt := range denied {
		if tt.from.CanTransition(tt.to) {
			t.Errorf("%s -> %s should be denied", tt.from, tt.to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusRejected, StatusCompleted, StatusCompletedDamaged, StatusCompletedLost}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []Status{StatusPending, StatusBorrowed, StatusReturnPending}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestReturnCondition(t *testing.T) {
	if got := ReturnNormal.Status(); got != StatusCompleted {
		t.Errorf("normal -> %s", got)
	}
	if got := ReturnDamaged.Status(); got != StatusCompletedDamaged {
		t.Errorf("damaged -> %s", got)
	}
	if got := ReturnLost.Status(); got != StatusCompletedLost {
		t.Errorf("lost -> %s", got)
	}
	if !ReturnNormal.RestoresStock() || !ReturnDamaged.RestoresStock() {
		t.Error("normal and damaged returns restore stock")
	}
	if ReturnLost.RestoresStock() {
		t.Error("lost returns must not restore stock")
	}
	if ReturnCondition("broken").Valid() {
		t.Error("unknown condition should be invalid")
	}
}

func TestActorCanAccessOrg(t *testing.T) {
	org := Actor{UserID: 1, OrganizationID: 5, Role: RoleAdminOrg}
	if !org.CanAccessOrg(5) {
		t.Error("org admin should access own org")
	}
	if org.CanAccessOrg(6) {
		t.Error("org admin must not access another org")
	}
	master := Actor{UserID: 2, Role: RoleAdminMaster}
	if master.CanAccessOrg(5) {
		t.Error("master monitors but does not act on org loans")
	}
}
