//go:build windows

package mpv

import (
	"time"

	"github.com/Microsoft/go-winio"
)

const pipeDialTimeout = 200 * time.Millisecond

// pipeReady dials the named pipe once to see whether mpv is listening
func pipeReady(address string) bool {
	timeout := pipeDialTimeout
	conn, err := winio.DialPipe(address, &timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
