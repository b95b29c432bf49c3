package ratelimit

import "testing"

func TestAdmitAlwaysAllowedWithNoPlan(t *testing.T) {
	l := New()
	d := l.Admit("1.2.3.4", 1000)
	if !d.Allowed || d.Limit != 0 || d.Remaining != 0 || d.Reset != 0 {
		t.Fatalf("expected (true,0,0,0) with no plan, got %+v", d)
	}
}

func TestAdmitWithinWindow(t *testing.T) {
	l := New()
	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 2, WindowSeconds: 60})

	d1 := l.Admit("1.2.3.4", 0)
	if !d1.Allowed || d1.Remaining != 1 {
		t.Fatalf("first request: expected allowed with remaining=1, got %+v", d1)
	}

	d2 := l.Admit("1.2.3.4", 5)
	if !d2.Allowed || d2.Remaining != 0 {
		t.Fatalf("second request: expected allowed with remaining=0, got %+v", d2)
	}

	d3 := l.Admit("1.2.3.4", 10)
	if d3.Allowed {
		t.Fatalf("third request: expected denial, got %+v", d3)
	}
	if d3.Limit != 2 || d3.Reset <= 0 {
		t.Fatalf("third request: expected limit=2 reset>0, got %+v", d3)
	}
}

func TestAdmitResetsAfterWindowElapses(t *testing.T) {
	l := New()
	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 1, WindowSeconds: 60})

	l.Admit("1.2.3.4", 0)
	denied := l.Admit("1.2.3.4", 30)
	if denied.Allowed {
		t.Fatalf("expected denial before window elapses, got %+v", denied)
	}

	allowed := l.Admit("1.2.3.4", 60)
	if !allowed.Allowed {
		t.Fatalf("expected admission once window has elapsed, got %+v", allowed)
	}
}

func TestAdmitIsolatesByIP(t *testing.T) {
	l := New()
	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 1, WindowSeconds: 60})

	a := l.Admit("1.1.1.1", 0)
	b := l.Admit("2.2.2.2", 0)
	if !a.Allowed || !b.Allowed {
		t.Fatalf("expected both distinct IPs admitted independently: a=%+v b=%+v", a, b)
	}
}

func TestSetPlanDropsPerIPState(t *testing.T) {
	l := New()
	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 1, WindowSeconds: 60})
	l.Admit("1.2.3.4", 0)

	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 1, WindowSeconds: 60})

	d := l.Admit("1.2.3.4", 1)
	if !d.Allowed {
		t.Fatalf("expected per-IP state reset after SetPlan, got %+v", d)
	}
}

func TestThreeRequestSequenceMatchesScenario(t *testing.T) {
	// §8 scenario 3: plan {R:2,W:60}, three requests within 10s from the
	// same IP → allowed, allowed, denied (limit=2, remaining=0, reset in (50,60]).
	l := New()
	l.SetPlan(&Plan{Name: "basic", RequestsPerWindow: 2, WindowSeconds: 60})

	r1 := l.Admit("1.2.3.4", 0)
	r2 := l.Admit("1.2.3.4", 5)
	r3 := l.Admit("1.2.3.4", 9)

	if !r1.Allowed || !r2.Allowed || r3.Allowed {
		t.Fatalf("expected allow,allow,deny; got %v,%v,%v", r1.Allowed, r2.Allowed, r3.Allowed)
	}
	if r3.Limit != 2 || r3.Remaining != 0 || r3.Reset <= 50 || r3.Reset > 60 {
		t.Fatalf("unexpected denial shape: %+v", r3)
	}
}
