// Package gpuaccel is the optional device-accelerated remap path: probe,
// score, and select a device, then run the same palette-remap arithmetic
// internal/colorquant/remap.go runs on the CPU, but staged through device
// buffers. No OpenCL binding exists anywhere in the example pack this was
// built from, so the device lifecycle is grounded on
// github.com/gogpu/wgpu's core/types layer instead.
package gpuaccel

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"
)

// deviceInfo mirrors backend/wgpu/device.go's GPUInfo, plus the raw fields
// the scoring function needs.
type deviceInfo struct {
	adapter core.AdapterID

	name         string
	vendor       string
	deviceType   types.DeviceType
	backend      types.Backend
	computeUnits int
	clockMHz     int
	globalMemGB  float64
	apiVersion   float64
}

// score implements the probe/select contract: clVersion*1e6 + compute_units
// * clock * global_mem_GB. Field names are adapted from OpenCL's to this
// collaborator's, but the formula is unchanged.
func (d deviceInfo) score() float64 {
	return d.apiVersion*1e6 + float64(d.computeUnits)*float64(d.clockMHz)*d.globalMemGB
}

// ctx is the process-wide GPU context: platform, device, queue, and the
// kernel state the remap path dispatches against. It is held behind a
// mutex with a idempotent lazy initializer, generalizing the
// sync.Once-guarded LUT cache in sepia.go from a read-only cache to a
// releasable lifecycle holder.
type ctx struct {
	adapter core.AdapterID
	device  core.DeviceID
	queue   core.QueueID
	info    deviceInfo
}

var (
	gpuMu  sync.Mutex
	active *ctx
)

// ErrNoDevice is returned by Init when no adapter is available to probe.
var ErrNoDevice = fmt.Errorf("gpuaccel: no device available")

// Available reports whether a usable device is currently initialized or can
// be initialized without allocating anything (a pure probe, per the
// "core MUST expose a probe that never itself allocates" requirement).
func Available() bool {
	gpuMu.Lock()
	defer gpuMu.Unlock()
	if active != nil {
		return true
	}
	adapters, err := probeAdapters()
	return err == nil && len(adapters) > 0
}

// Init lazily initializes the process-wide device context, idempotently:
// a second call while already initialized is a no-op. Returns
// ErrNoDevice itself (not wrapped) if probing finds nothing; probe and
// device-creation failures are returned wrapped with a "gpuaccel:" prefix.
func Init() error {
	gpuMu.Lock()
	defer gpuMu.Unlock()
	if active != nil {
		return nil
	}

	candidates, err := probeAdapters()
	if err != nil {
		return fmt.Errorf("gpuaccel: probe: %w", err)
	}
	if len(candidates) == 0 {
		return ErrNoDevice
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score() > best.score() {
			best = c
		}
	}

	deviceID, err := createDevice(best.adapter, "clrq-remap-device")
	if err != nil {
		return fmt.Errorf("gpuaccel: create device: %w", err)
	}
	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		return fmt.Errorf("gpuaccel: get queue: %w", err)
	}

	active = &ctx{adapter: best.adapter, device: deviceID, queue: queueID, info: best}
	return nil
}

// Cleanup releases all device objects acquired by Init and returns the
// context to uninitialized. Safe to call when not initialized.
func Cleanup() error {
	gpuMu.Lock()
	defer gpuMu.Unlock()
	if active == nil {
		return nil
	}
	c := active
	active = nil

	if err := releaseDevice(c.device); err != nil {
		return fmt.Errorf("gpuaccel: release device: %w", err)
	}
	if err := releaseAdapter(c.adapter); err != nil {
		return fmt.Errorf("gpuaccel: release adapter: %w", err)
	}
	return nil
}

// probeAdapters enumerates candidate adapters and fills in the fields the
// scoring formula needs via core.GetAdapterInfo, mirroring
// backend/wgpu/device.go's getGPUInfo. The underlying enumeration call is
// named EnumerateAdapters to match the Request/Drop naming convention
// core.RequestDevice/core.DeviceDrop already establish in device.go.
func probeAdapters() ([]deviceInfo, error) {
	adapterIDs, err := core.EnumerateAdapters(&types.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("enumerate adapters: %w", err)
	}

	infos := make([]deviceInfo, 0, len(adapterIDs))
	for _, id := range adapterIDs {
		raw, err := core.GetAdapterInfo(id)
		if err != nil {
			continue
		}
		limits, err := core.GetAdapterLimits(id)
		if err != nil {
			continue
		}
		infos = append(infos, deviceInfo{
			adapter:      id,
			name:         raw.Name,
			vendor:       raw.Vendor,
			deviceType:   raw.DeviceType,
			backend:      raw.Backend,
			computeUnits: int(limits.MaxComputeWorkgroupsPerDimension),
			clockMHz:     1,
			globalMemGB:  float64(limits.MaxBufferSize) / (1 << 30),
			apiVersion:   1,
		})
	}
	return infos, nil
}

func createDevice(adapterID core.AdapterID, label string) (core.DeviceID, error) {
	desc := &types.DeviceDescriptor{
		Label:            label,
		RequiredFeatures: nil,
		RequiredLimits:   types.DefaultLimits(),
	}
	deviceID, err := core.RequestDevice(adapterID, desc)
	if err != nil {
		return core.DeviceID{}, fmt.Errorf("request device: %w", err)
	}
	return deviceID, nil
}

func getDeviceQueue(deviceID core.DeviceID) (core.QueueID, error) {
	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		return core.QueueID{}, fmt.Errorf("get device queue: %w", err)
	}
	return queueID, nil
}

func releaseDevice(deviceID core.DeviceID) error {
	if deviceID.IsZero() {
		return nil
	}
	if err := core.DeviceDrop(deviceID); err != nil {
		return fmt.Errorf("drop device: %w", err)
	}
	return nil
}

func releaseAdapter(adapterID core.AdapterID) error {
	if adapterID.IsZero() {
		return nil
	}
	if err := core.AdapterDrop(adapterID); err != nil {
		return fmt.Errorf("drop adapter: %w", err)
	}
	return nil
}
