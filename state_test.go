package luasched

import "testing"

func TestRuntimeStateTransitions(t *testing.T) {
	s := newRuntimeState()
	if got := s.Load(); got != NotStarted {
		t.Fatalf("initial state = %v, want NotStarted", got)
	}
	if !s.TryTransition(NotStarted, Running) {
		t.Fatal("expected NotStarted -> Running to succeed")
	}
	if s.TryTransition(NotStarted, Running) {
		t.Fatal("expected a second NotStarted -> Running to fail")
	}
	if got := s.Load(); got != Running {
		t.Fatalf("state = %v, want Running", got)
	}
	s.Store(Completed)
	if got := s.Load(); got != Completed {
		t.Fatalf("state = %v, want Completed", got)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		NotStarted: "NotStarted",
		Running:    "Running",
		Completed:  "Completed",
		Status(99): "Unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
