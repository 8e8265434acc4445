// internal/billing/plans_test.go
//
// The ceiling numbers are contractual; this test pins them.

package billing

import "testing"

func TestCeilingsForPlan(t *testing.T) {
	cases := []struct {
		plan string
		want Ceilings
		ok   bool
	}{
		{"starter", Ceilings{MaxUsers: 15, MaxProjects: 50, MaxStorageGB: 10}, true},
		{"professional", Ceilings{MaxUsers: 50, MaxProjects: 200, MaxStorageGB: 50}, true},
		{"enterprise", Ceilings{MaxUsers: 999, MaxProjects: 999, MaxStorageGB: 100}, true},
		{"free", Ceilings{}, false},
		{"platinum", Ceilings{}, false},
		{"", Ceilings{}, false},
	}

	for _, c := range cases {
		got, ok := CeilingsForPlan(c.plan)
		if ok != c.ok || got != c.want {
			t.Errorf("CeilingsForPlan(%q) = %+v, %v; want %+v, %v", c.plan, got, ok, c.want, c.ok)
		}
	}
}

func TestFreeCeilings(t *testing.T) {
	if FreeCeilings != (Ceilings{MaxUsers: 5, MaxProjects: 10, MaxStorageGB: 1}) {
		t.Fatalf("FreeCeilings = %+v", FreeCeilings)
	}
}
