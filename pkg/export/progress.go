package export

// ProgressSink receives progress events from a run. Percent never
// decreases within one run and the last event is always 100.
type ProgressSink interface {
	Progress(percent int, label string)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(percent int, label string)

func (f ProgressFunc) Progress(percent int, label string) {
	f(percent, label)
}

// Discard ignores progress.
var Discard ProgressSink = ProgressFunc(func(int, string) {})
