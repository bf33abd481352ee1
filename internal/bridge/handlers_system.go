package bridge

import (
	"errors"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/framesense/agent/internal/capture"
)

func init() {
	registerHandler(CmdSystemInfo, handleSystemInfo)
	registerHandler(CmdScreenInfo, handleScreenInfo)
	registerHandler(CmdCheckPermissions, handleCheckPermissions)
	registerHandler(CmdExtractTextOCR, handleExtractTextOCR)
}

func handleSystemInfo(_ *Bridge, _ Command) Result {
	info := map[string]any{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
		"cpus": runtime.NumCPU(),
	}

	if hi, err := host.Info(); err == nil {
		info["hostname"] = hi.Hostname
		info["platform"] = hi.Platform
		info["platformVersion"] = hi.PlatformVersion
		info["uptimeSeconds"] = hi.Uptime
	} else {
		log.Warn("host info unavailable", "error", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info["memoryTotalBytes"] = vm.Total
		info["memoryUsedPercent"] = vm.UsedPercent
	}

	return NewSuccessResult(info)
}

func handleScreenInfo(b *Bridge, _ Command) Result {
	area, monitors, err := b.deps.Topo.TotalArea()
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(map[string]any{
		"monitors":       monitors,
		"virtualDesktop": area,
	})
}

// handleCheckPermissions probes for screen recording consent by reading a
// single pixel. On macOS the first real capture is what trips the consent
// dialog, so a 1x1 read is the cheapest honest check.
func handleCheckPermissions(b *Bridge, _ Command) Result {
	monitors, err := b.deps.Topo.Monitors()
	if err != nil {
		return NewSuccessResult(map[string]any{"granted": false, "reason": err.Error()})
	}

	_, err = b.deps.Backend.ReadPixels(monitors[0], capture.Rect{Width: 1, Height: 1})
	if err != nil {
		return NewSuccessResult(map[string]any{"granted": false, "reason": err.Error()})
	}
	return NewSuccessResult(map[string]any{"granted": true})
}

func handleExtractTextOCR(b *Bridge, cmd Command) Result {
	payload := GetPayloadString(cmd.Payload, "imageData", "")
	if payload == "" {
		return NewErrorResult(errors.New("imageData is required"))
	}

	res, err := b.deps.OCR.ExtractText(payload)
	if err != nil {
		return NewErrorResult(err)
	}
	return NewSuccessResult(res)
}
