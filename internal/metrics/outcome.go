package metrics

import "time"

// Phase identifies a stage of the request/response cycle. A failed
// Outcome carries the phase that was in progress when the request broke
// down; PhaseTimeout is used when the per-request deadline fired,
// regardless of how far the cycle had progressed.
type Phase string

const (
	PhaseDNS     Phase = "dns"
	PhaseConnect Phase = "connect"
	PhaseTLS     Phase = "tls"
	PhaseWrite   Phase = "write"
	PhaseWait    Phase = "wait"
	PhaseRead    Phase = "read"
	PhaseTimeout Phase = "timeout"
)

// PhaseTimings breaks one request down into its observable stages. A
// stage that did not occur (reused connection, plain HTTP) is zero.
type PhaseTimings struct {
	DNS     time.Duration `json:"dns"`
	Connect time.Duration `json:"connect"`
	TLS     time.Duration `json:"tls"`
	Write   time.Duration `json:"write"`
	Wait    time.Duration `json:"wait"`
	Read    time.Duration `json:"read"`
}

// Outcome is the result of one attempted request. Exactly one Outcome is
// published per dispatch, and it is immutable once published.
type Outcome struct {
	Start    time.Time
	Duration time.Duration
	Phases   PhaseTimings
	Status   int
	Bytes    int64
	Phase    Phase // failing phase, meaningful only when Err != nil
	Err      error
}

// Failed reports whether the request did not complete with a response.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// ErrorClass returns the label under which a failed Outcome is
// aggregated: the failing phase plus a human-friendly error type name.
func (o Outcome) ErrorClass() string {
	if o.Err == nil {
		return ""
	}
	name := FriendlyErrorName(typeName(o.Err))
	if o.Phase == "" {
		return name
	}
	return string(o.Phase) + ": " + name
}
