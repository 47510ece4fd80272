package models

// HealthState is the Store Gateway's connectivity state.
type HealthState int32

const (
	Degraded HealthState = iota
	Connected
)

func (h HealthState) String() string {
	switch h {
	case Connected:
		return "connected"
	default:
		return "degraded"
	}
}

// Source tells a caller whether data came from the store or the fallback generator.
type Source string

const (
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)
