// Command sampletarget runs a local HTTP server with tunable latency
// and failure behavior, handy for exercising pelt by hand:
//
//	go run ./scripts/testservers/sampletarget -port 8080
//	pelt -n 1000 -c 50 http://127.0.0.1:8080/delay?ms=20
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func main() {
	port := flag.Int("port", 8080, "Listening port")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/delay", handleDelay)
	mux.HandleFunc("/status/", handleStatus)
	mux.HandleFunc("/bytes/", handleBytes)
	mux.HandleFunc("/flaky", handleFlaky)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": r.URL.Path})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("sample target listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// handleDelay sleeps for ?ms= before responding, with optional
// ?jitter= milliseconds added at random.
func handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, _ := strconv.Atoi(r.URL.Query().Get("ms"))
	if jitter, _ := strconv.Atoi(r.URL.Query().Get("jitter")); jitter > 0 {
		ms += rand.Intn(jitter)
	}
	if ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
	respondJSON(w, http.StatusOK, map[string]any{"slept_ms": ms})
}

// handleStatus echoes the status code named in the path, e.g.
// /status/503.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad status code"})
		return
	}
	respondJSON(w, code, map[string]any{"status": code})
}

// handleBytes responds with the requested number of bytes, e.g.
// /bytes/4096.
func handleBytes(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/bytes/"))
	if err != nil || n < 0 || n > 64<<20 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad byte count"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	buf := make([]byte, 32*1024)
	for i := range buf {
		buf[i] = 'x'
	}
	for n > 0 {
		chunk := len(buf)
		if n < chunk {
			chunk = n
		}
		if _, err := w.Write(buf[:chunk]); err != nil {
			return
		}
		n -= chunk
	}
}

// handleFlaky fails a fraction of requests, ?rate=0.25 by default.
func handleFlaky(w http.ResponseWriter, r *http.Request) {
	failRate := 0.25
	if v, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64); err == nil && v >= 0 && v <= 1 {
		failRate = v
	}
	if rand.Float64() < failRate {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "flaky failure"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
