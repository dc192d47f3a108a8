package sequence

// Option configures Build.
type Option func(*builder)

// WithReboundWindow sets the elapsed-time window, in seconds, inside which a
// shot following a shot on goal counts as a rebound. The window is
// (0, maxSeconds), or [0, maxSeconds) when allowZero is set.
func WithReboundWindow(maxSeconds float64, allowZero bool) Option {
	return func(b *builder) {
		if maxSeconds > 0 {
			b.window = Window{Max: maxSeconds, AllowZero: allowZero}
		}
	}
}
