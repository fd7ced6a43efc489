package mpv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// endpoint is the address of one mpv JSON IPC server. Unix systems use a
// socket file, Windows a named pipe.
type endpoint struct {
	address string
	pipe    bool
}

// newEndpoint returns a fresh, unused address for goos. WSL runs the Linux
// mpv, since gopv cannot reach Windows named pipes from inside WSL.
func newEndpoint(goos string) endpoint {
	name := "animeplay-mpv-" + uuid.NewString()[:8]
	if goos == "windows" {
		return endpoint{address: `\\.\pipe\` + name, pipe: true}
	}
	return endpoint{address: filepath.Join(os.TempDir(), name+".sock")}
}

func (e endpoint) arg() string {
	return "--input-ipc-server=" + e.address
}

// ready reports whether mpv is accepting connections on e
func (e endpoint) ready() bool {
	if e.pipe {
		return pipeReady(e.address)
	}
	_, err := os.Stat(e.address)
	return err == nil
}

// remove deletes a leftover socket file. Named pipes vanish with mpv.
func (e endpoint) remove() {
	if !e.pipe && e.address != "" {
		_ = os.Remove(e.address)
	}
}

// executableName is the mpv binary looked up in PATH
func executableName(goos string) string {
	if goos == "windows" {
		return "mpv.exe"
	}
	return "mpv"
}

// findExecutable resolves the mpv binary. A configured path wins over PATH.
func findExecutable(override string) (string, error) {
	name := override
	if name == "" {
		name = executableName(runtime.GOOS)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found, install mpv or set player.mpv_path: %w", name, err)
	}
	return path, nil
}
