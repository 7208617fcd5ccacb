package model

import "testing"

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"open", "in_progress", "completed", "blocked"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Errorf("ParseStatus(%q) err = %v, want nil", raw, err)
		}
	}
	for _, raw := range []string{"", "Open", "done", "OPEN"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%q) err = nil, want error", raw)
		}
	}
}

func TestParseTypeAndPriority(t *testing.T) {
	if _, err := ParseType("feature"); err != nil {
		t.Errorf("ParseType(feature) err = %v, want nil", err)
	}
	if _, err := ParseType("epic"); err == nil {
		t.Error("ParseType(epic) err = nil, want error")
	}
	if _, err := ParsePriority("high"); err != nil {
		t.Errorf("ParsePriority(high) err = %v, want nil", err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("ParsePriority(urgent) err = nil, want error")
	}
}

func TestActorPermissions(t *testing.T) {
	creator := "alice"
	assignee := "bob"
	task := &Task{CreatedBy: creator, AssignedTo: &assignee}

	cases := []struct {
		actor      Actor
		canManage  bool
		canActHere bool
	}{
		{Actor{ID: "root", Role: RoleAdmin}, true, true},
		{Actor{ID: "mgr", Role: RoleManager}, true, false},
		{Actor{ID: creator, Role: RoleDeveloper}, false, true},
		{Actor{ID: assignee, Role: RoleTester}, false, true},
		{Actor{ID: "stranger", Role: RoleDeveloper}, false, false},
	}
	for _, tc := range cases {
		if got := tc.actor.CanManage(); got != tc.canManage {
			t.Errorf("%s.CanManage() = %v, want %v", tc.actor.ID, got, tc.canManage)
		}
		if got := tc.actor.CanAct(task); got != tc.canActHere {
			t.Errorf("%s.CanAct() = %v, want %v", tc.actor.ID, got, tc.canActHere)
		}
	}
}
