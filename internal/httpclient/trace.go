package httpclient

import (
	"crypto/tls"
	"net/http/httptrace"
	"time"

	"github.com/peltload/pelt/internal/metrics"
)

// traceRecorder captures httptrace callbacks for a single request. The
// transport invokes the hooks sequentially for one request, so plain
// fields suffice.
type traceRecorder struct {
	start        time.Time
	dnsStart     time.Time
	dnsDone      time.Time
	connectStart time.Time
	connectDone  time.Time
	tlsStart     time.Time
	tlsDone      time.Time
	wroteRequest time.Time
	firstByte    time.Time

	dnsErr     bool
	connectErr bool
	tlsErr     bool
}

func (r *traceRecorder) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			r.dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			r.dnsDone = time.Now()
			r.dnsErr = info.Err != nil
		},
		ConnectStart: func(string, string) {
			if r.connectStart.IsZero() {
				r.connectStart = time.Now()
			}
		},
		ConnectDone: func(_, _ string, err error) {
			r.connectDone = time.Now()
			// A later dial attempt may succeed after an earlier one
			// failed; only the final state matters.
			r.connectErr = err != nil
		},
		TLSHandshakeStart: func() {
			r.tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			r.tlsDone = time.Now()
			r.tlsErr = err != nil
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			r.wroteRequest = time.Now()
		},
		GotFirstResponseByte: func() {
			r.firstByte = time.Now()
		},
	}
}

// timings converts the captured instants into per-phase durations. end
// is when the response body was fully read.
func (r *traceRecorder) timings(end time.Time) metrics.PhaseTimings {
	var t metrics.PhaseTimings
	if !r.dnsStart.IsZero() && !r.dnsDone.IsZero() {
		t.DNS = r.dnsDone.Sub(r.dnsStart)
	}
	if !r.connectStart.IsZero() && !r.connectDone.IsZero() {
		t.Connect = r.connectDone.Sub(r.connectStart)
	}
	if !r.tlsStart.IsZero() && !r.tlsDone.IsZero() {
		t.TLS = r.tlsDone.Sub(r.tlsStart)
	}
	if !r.wroteRequest.IsZero() {
		writeStart := r.start
		switch {
		case !r.tlsDone.IsZero():
			writeStart = r.tlsDone
		case !r.connectDone.IsZero():
			writeStart = r.connectDone
		}
		if r.wroteRequest.After(writeStart) {
			t.Write = r.wroteRequest.Sub(writeStart)
		}
		if !r.firstByte.IsZero() && r.firstByte.After(r.wroteRequest) {
			t.Wait = r.firstByte.Sub(r.wroteRequest)
		}
	}
	if !r.firstByte.IsZero() && end.After(r.firstByte) {
		t.Read = end.Sub(r.firstByte)
	}
	return t
}

// failPhase reports which phase was in progress when the request broke
// down, judged by how far the trace callbacks had advanced.
func (r *traceRecorder) failPhase() metrics.Phase {
	switch {
	case r.dnsErr:
		return metrics.PhaseDNS
	case r.connectErr:
		return metrics.PhaseConnect
	case r.tlsErr:
		return metrics.PhaseTLS
	case !r.firstByte.IsZero():
		return metrics.PhaseRead
	case !r.wroteRequest.IsZero():
		return metrics.PhaseWait
	case !r.tlsStart.IsZero() && r.tlsDone.IsZero():
		return metrics.PhaseTLS
	case !r.connectStart.IsZero() && r.connectDone.IsZero():
		return metrics.PhaseConnect
	case !r.dnsStart.IsZero() && r.dnsDone.IsZero():
		return metrics.PhaseDNS
	case !r.tlsDone.IsZero() || !r.connectDone.IsZero():
		return metrics.PhaseWrite
	default:
		return metrics.PhaseConnect
	}
}
