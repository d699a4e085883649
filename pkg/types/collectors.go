package types

// TraceCollector receives finished events from the capture paths.
// AddEvent may be called concurrently from multiple runtime threads;
// Flush is called exactly once at session teardown and means no further
// events will arrive.
type TraceCollector interface {
	AddEvent(ev TraceEvent)
	Flush()
}
