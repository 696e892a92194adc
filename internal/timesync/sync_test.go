package timesync

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	setNow []time.Time
	setPPS []time.Time
	setErr error
}

func (f *fakeClock) TimeNow(context.Context) (time.Time, error) { return f.now, nil }

func (f *fakeClock) SetTimeNow(_ context.Context, t time.Time) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setNow = append(f.setNow, t)
	return nil
}

func (f *fakeClock) SetTimeNextPPS(_ context.Context, t time.Time) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setPPS = append(f.setPPS, t)
	return nil
}

// withFakeTime pins the host clock and records deadline sleeps instead of
// performing them.
func withFakeTime(t *testing.T, now time.Time) *[]time.Time {
	t.Helper()
	oldNow, oldSleep := timeNow, sleepUntil
	sleeps := &[]time.Time{}
	timeNow = func() time.Time { return now }
	sleepUntil = func(ctx context.Context, target time.Time) error {
		*sleeps = append(*sleeps, target)
		return ctx.Err()
	}
	t.Cleanup(func() { timeNow, sleepUntil = oldNow, oldSleep })
	return sleeps
}

func TestParseSource(t *testing.T) {
	cases := []struct {
		in   string
		want Source
	}{
		{"host", SourceHost},
		{"Host", SourceHost},
		{"pps", SourcePPS},
		{" PPS ", SourcePPS},
	}
	for _, tc := range cases {
		got, err := ParseSource(tc.in)
		if err != nil {
			t.Errorf("ParseSource(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSource(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	_, err := ParseSource("gps")
	var unknown *UnknownSourceError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSourceError, got %v", err)
	}
	if unknown.Name != "gps" {
		t.Fatalf("unexpected source name %q", unknown.Name)
	}
}

func TestTargetSecond(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		offset time.Duration
		want   time.Time
	}{
		{500 * time.Millisecond, base.Add(time.Second)},
		{799999999 * time.Nanosecond, base.Add(time.Second)},
		{800 * time.Millisecond, base.Add(2 * time.Second)},
		{900 * time.Millisecond, base.Add(2 * time.Second)},
		{0, base},
	}
	for _, tc := range cases {
		if got := TargetSecond(base.Add(tc.offset)); !got.Equal(tc.want) {
			t.Errorf("TargetSecond(base+%v) = %v, want %v", tc.offset, got, tc.want)
		}
	}
}

func TestCeilSecond(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := CeilSecond(base.Add(time.Nanosecond)); !got.Equal(base.Add(time.Second)) {
		t.Fatalf("expected next second, got %v", got)
	}
	if got := CeilSecond(base); !got.Equal(base) {
		t.Fatalf("whole second should be unchanged, got %v", got)
	}
}

func TestSyncPPS(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sleeps := withFakeTime(t, base.Add(300*time.Millisecond))
	dev := &fakeClock{}

	loaded, err := Sync(context.Background(), dev, SourcePPS, nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	target := base.Add(time.Second)
	if !loaded.Equal(target) {
		t.Fatalf("loaded %v, want %v", loaded, target)
	}
	if len(dev.setPPS) != 1 || !dev.setPPS[0].Equal(target) {
		t.Fatalf("unexpected pps loads %v", dev.setPPS)
	}
	if len(*sleeps) != 1 || !(*sleeps)[0].Equal(target.Add(-maxHostClockError)) {
		t.Fatalf("expected one sleep until %v, got %v", target.Add(-maxHostClockError), *sleeps)
	}
	if len(dev.setNow) != 0 {
		t.Fatalf("pps sync must not load the clock directly")
	}
}

func TestSyncPPSLateInSecond(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withFakeTime(t, base.Add(900*time.Millisecond))
	dev := &fakeClock{}

	loaded, err := Sync(context.Background(), dev, SourcePPS, nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if want := base.Add(2 * time.Second); !loaded.Equal(want) {
		t.Fatalf("loaded %v, want %v", loaded, want)
	}
}

func TestSyncHost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	withFakeTime(t, now)
	dev := &fakeClock{}

	loaded, err := Sync(context.Background(), dev, SourceHost, nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !loaded.Equal(now) {
		t.Fatalf("loaded %v, want %v", loaded, now)
	}
	if len(dev.setNow) != 1 || !dev.setNow[0].Equal(now) {
		t.Fatalf("unexpected clock loads %v", dev.setNow)
	}
}

func TestSyncClockSetFailure(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withFakeTime(t, base.Add(100*time.Millisecond))
	cause := errors.New("link lost")
	dev := &fakeClock{setErr: cause}

	_, err := Sync(context.Background(), dev, SourcePPS, nil)
	var cse *ClockSetError
	if !errors.As(err, &cse) {
		t.Fatalf("expected ClockSetError, got %v", err)
	}
	if cse.Source != SourcePPS || !errors.Is(err, cause) {
		t.Fatalf("unexpected error detail %+v", cse)
	}
}

func TestSyncUnknownSource(t *testing.T) {
	withFakeTime(t, time.Now())
	var unknown *UnknownSourceError
	if _, err := Sync(context.Background(), &fakeClock{}, Source(7), nil); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSourceError, got %v", err)
	}
}

func TestSleepUntil(t *testing.T) {
	// Past deadlines return immediately.
	if err := sleepUntil(context.Background(), time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("past deadline: %v", err)
	}

	// Cancellation interrupts the wait.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := sleepUntil(ctx, time.Now().Add(5*time.Second))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancel did not interrupt the sleep")
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 5, 123, time.UTC)
	if got := FormatTime(ts); got != "2026-03-01 12:00:05.000000123" {
		t.Fatalf("unexpected format %q", got)
	}
}
