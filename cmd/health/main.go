package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

// Tiny liveness probe: fetches /healthz from a running server and exits
// non-zero when it is unhealthy. Useful as a container healthcheck.
func main() {
	target := flag.String("target", "http://127.0.0.1:8080/healthz", "health endpoint to probe")
	timeout := flag.Duration("timeout", 3*time.Second, "probe timeout")
	flag.Parse()

	c := &fasthttp.Client{ReadTimeout: *timeout, WriteTimeout: *timeout}
	status, body, err := c.GetTimeout(nil, *target, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if status != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "unhealthy: status=%d body=%s\n", status, body)
		os.Exit(1)
	}
	fmt.Printf("ok: %s\n", body)
}
