package controller

import (
	"strings"
)

// HandleKey applies a keyboard shortcut. Keys use bubbletea's names
// ("space", "left", "ctrl+c"). Modified keys are left to the caller. Any
// handled key counts as activity and reveals the controls.
func (c *Controller) HandleKey(key string) bool {
	if c.closed || strings.HasPrefix(key, "ctrl+") || strings.HasPrefix(key, "alt+") {
		return false
	}

	state := c.manager.State()
	step := c.opts.SeekStep.Seconds()

	switch key {
	case " ", "space", "k":
		c.manager.TogglePlay()
	case "f":
		c.fullscreen.Toggle()
	case "m":
		c.manager.ToggleMute()
	case "left":
		c.manager.SeekBy(-step)
	case "right":
		c.manager.SeekBy(step)
	case "up":
		c.manager.SetVolume(state.Volume + c.opts.VolumeStep)
	case "down":
		c.manager.SetVolume(state.Volume - c.opts.VolumeStep)
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		c.manager.SeekToFraction(float64(key[0]-'0') / 10)
	case "N":
		c.Next()
	case "P":
		c.Previous()
	case "y":
		c.CopyStreamURL()
	case "s":
		c.quality.ToggleSettings()
	case "esc":
		if !c.quality.MenuOpen() {
			return false
		}
		c.quality.Back()
	case "r":
		if !state.Errored() {
			return false
		}
		if err := c.Retry(); err != nil {
			c.logger.Warn("retry failed", "error", err)
		}
	default:
		return false
	}

	c.controls.PointerMove()
	return true
}
