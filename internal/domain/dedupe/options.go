package dedupe

// Option applies a configuration option to the deduper.
type Option func(*InMemoryDeduper)

// WithExpected sizes the bloom prefilter for n distinct keys.
func WithExpected(n uint) Option {
	return func(d *InMemoryDeduper) {
		if n > 0 {
			d.expected = n
		}
	}
}

// WithFalsePositiveRate sets the prefilter's target false positive rate.
func WithFalsePositiveRate(p float64) Option {
	return func(d *InMemoryDeduper) {
		if p > 0 && p < 1 {
			d.fpRate = p
		}
	}
}
