package spawn

import "time"

// Timer is a one-shot countdown. It fires once when the elapsed time reaches
// its duration and stays finished until Restart.
type Timer struct {
	duration time.Duration
	elapsed  time.Duration
	finished bool
}

func NewTimer(d time.Duration) *Timer {
	return &Timer{duration: max(d, 0)}
}

// Tick advances the timer and reports whether it finished on this call.
func (t *Timer) Tick(dt time.Duration) bool {
	if t.finished {
		return false
	}
	t.elapsed += max(dt, 0)
	if t.elapsed >= t.duration {
		t.elapsed = t.duration
		t.finished = true
		return true
	}
	return false
}

func (t *Timer) Restart() {
	t.elapsed = 0
	t.finished = false
}

func (t *Timer) Finished() bool { return t.finished }

func (t *Timer) Remaining() time.Duration { return t.duration - t.elapsed }

func (t *Timer) Duration() time.Duration { return t.duration }
