package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry(t *testing.T, grace time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(NewRegistryParams{GracePeriod: grace, Buffer: 16})
	t.Cleanup(r.Close)
	return r
}

func drain(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for len(out) < n {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d messages", len(out), n)
		}
	}
	return out
}

func TestRegistry_LogAndSubscriberSeeSameOrder(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	r.Create("acme-corp")
	sub, history := r.Subscribe("acme-corp")
	require.Empty(t, history)

	want := make([]string, 10)
	for i := range want {
		want[i] = fmt.Sprintf("m%d", i+1)
		r.Record("acme-corp", want[i])
	}

	require.Equal(t, want, r.Log("acme-corp"))
	require.Equal(t, want, drain(t, sub, len(want)))
}

func TestRegistry_SubscribeReturnsHistoryThenLive(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	r.Create("acme-corp")
	r.Record("acme-corp", "one")
	r.Record("acme-corp", "two")

	sub, history := r.Subscribe("acme-corp")
	r.Record("acme-corp", "three")

	require.Equal(t, []string{"one", "two"}, history)
	require.Equal(t, []string{"three"}, drain(t, sub, 1))
}

func TestRegistry_UnsubscribeDuringFanOut(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	r.Create("acme-corp")
	first, _ := r.Subscribe("acme-corp")
	second, _ := r.Subscribe("acme-corp")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-first.C()
		r.Unsubscribe(first)
	}()

	r.Record("acme-corp", "m1")
	wg.Wait()
	r.Record("acme-corp", "m2")

	_, ok := <-first.C()
	require.False(t, ok, "removed subscriber must not receive further messages")
	require.Equal(t, []string{"m1", "m2"}, drain(t, second, 2))

	r.Unsubscribe(first)
}

func TestRegistry_RetireKeepsSessionUntilGraceElapses(t *testing.T) {
	grace := 50 * time.Millisecond
	r := newTestRegistry(t, grace)
	handle := r.Create("acme-corp")
	sub, _ := r.Subscribe("acme-corp")
	r.Record("acme-corp", "Research complete.")

	r.Retire(handle)
	require.Equal(t, []string{"Research complete."}, r.Log("acme-corp"))

	require.Eventually(t, func() bool {
		return len(r.Log("acme-corp")) == 0
	}, time.Second, 5*time.Millisecond)

	r.Record("acme-corp", "late")
	require.Empty(t, r.Log("acme-corp"))

	require.Equal(t, []string{"Research complete."}, drain(t, sub, 2))
	_, ok := <-sub.C()
	require.False(t, ok, "expiry must close the subscription")
}

func TestRegistry_StaleRetireDoesNotExpireNewerRun(t *testing.T) {
	r := newTestRegistry(t, 20*time.Millisecond)
	old := r.Create("acme-corp")
	r.Create("acme-corp")
	r.Record("acme-corp", "newer")

	r.Retire(old)
	time.Sleep(60 * time.Millisecond)

	require.Equal(t, []string{"newer"}, r.Log("acme-corp"))
}

func TestRegistry_RecreateResetsLogAndKeepsSubscribers(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	r.Create("acme-corp")
	r.Record("acme-corp", "first run")
	sub, _ := r.Subscribe("acme-corp")

	r.Create("acme-corp")
	require.Empty(t, r.Log("acme-corp"))

	r.Record("acme-corp", "second run")
	require.Equal(t, []string{"second run"}, drain(t, sub, 1))
}

func TestRegistry_EarlySubscriberIsClaimedByCreate(t *testing.T) {
	r := newTestRegistry(t, 30*time.Millisecond)
	sub, history := r.Subscribe("acme-corp")
	require.Empty(t, history)

	r.Record("acme-corp", "ignored before create")
	r.Create("acme-corp")
	time.Sleep(60 * time.Millisecond)
	r.Record("acme-corp", "Generating initial search queries...")

	require.Equal(t, []string{"Generating initial search queries..."}, drain(t, sub, 1))
}

func TestRegistry_UnclaimedSubscriptionExpires(t *testing.T) {
	r := newTestRegistry(t, 20*time.Millisecond)
	sub, _ := r.Subscribe("nobody")

	select {
	case _, ok := <-sub.C():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("placeholder session never expired")
	}
}

func TestRegistry_UnknownKeyIsNoop(t *testing.T) {
	r := newTestRegistry(t, time.Minute)

	require.NotPanics(t, func() {
		r.Record("missing", "hello")
		r.Retire(Session{Key: "missing"})
		r.Unsubscribe(nil)
	})
	require.Empty(t, r.Log("missing"))
}

func TestRegistry_FullBufferDropsForSlowSubscriberOnly(t *testing.T) {
	r := NewRegistry(NewRegistryParams{GracePeriod: time.Minute, Buffer: 1})
	t.Cleanup(r.Close)
	r.Create("acme-corp")
	slow, _ := r.Subscribe("acme-corp")

	r.Record("acme-corp", "m1")
	r.Record("acme-corp", "m2")

	require.Equal(t, []string{"m1", "m2"}, r.Log("acme-corp"))
	require.Equal(t, "m1", <-slow.C())
}

func TestRegistry_CloseEndsSubscriptions(t *testing.T) {
	r := NewRegistry(NewRegistryParams{})
	r.Create("acme-corp")
	sub, _ := r.Subscribe("acme-corp")

	r.Close()

	_, ok := <-sub.C()
	require.False(t, ok)
	r.Unsubscribe(sub)
}

func TestRegistry_ConcurrentWritersAndSubscribers(t *testing.T) {
	r := newTestRegistry(t, time.Minute)
	r.Create("acme-corp")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Record("acme-corp", fmt.Sprintf("m%d", i))
		}(i)
		go func() {
			defer wg.Done()
			sub, _ := r.Subscribe("acme-corp")
			r.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	require.Len(t, r.Log("acme-corp"), 8)
}

func TestSessionKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"Acme  corp", "acme-corp"},
		{"  ACME\tCorp  ", "acme-corp"},
		{"Acme", "acme"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SessionKey(tt.in); got != tt.want {
			t.Errorf("SessionKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
