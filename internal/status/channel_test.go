package status

import (
	"testing"

	"scribeflow/internal/domain"
)

func TestPublishAndClear(t *testing.T) {
	c := NewChannel()
	if _, ok := c.Current(); ok {
		t.Fatal("new channel should have no status")
	}

	c.Success("done")
	st, ok := c.Current()
	if !ok || st.Text != "done" || st.Severity != domain.SeveritySuccess {
		t.Fatalf("unexpected status: %+v ok=%v", st, ok)
	}

	c.Clear()
	if _, ok := c.Current(); ok {
		t.Fatal("expected status to be cleared")
	}
}

func TestSubscribersSeeEveryChangeInOrder(t *testing.T) {
	c := NewChannel()
	var got []string
	unsubscribe := c.Subscribe(func(st domain.Status, ok bool) {
		if !ok {
			got = append(got, "<cleared>")
			return
		}
		got = append(got, string(st.Severity)+":"+st.Text)
	})

	c.Info("working")
	c.Error("boom")
	c.Clear()
	unsubscribe()
	c.Info("unseen")

	want := []string{"info:working", "error:boom", "<cleared>"}
	if len(got) != len(want) {
		t.Fatalf("unexpected notifications: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListenerMayReadChannel(t *testing.T) {
	c := NewChannel()
	var seen domain.Status
	c.Subscribe(func(domain.Status, bool) {
		seen, _ = c.Current()
	})
	c.Info("reentrant")
	if seen.Text != "reentrant" {
		t.Fatalf("unexpected status seen by listener: %+v", seen)
	}
}
