//go:build !windows

package mpv

// pipeReady is never reached off Windows, where endpoints are sockets
func pipeReady(string) bool {
	return false
}
