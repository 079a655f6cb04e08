package drivershim

import (
	"fmt"
	"runtime"
	"sync"
)

// CallerIdentity is the address of the call site that invoked device
// registration. It exists so substitution can later be restricted to a known
// caller module; the default policy accepts everyone.
type CallerIdentity uintptr

// CallerFilter decides whether a registration caller may trigger shim
// substitution.
type CallerFilter func(CallerIdentity) bool

// AllowAllCallers is the default, permissive filter.
func AllowAllCallers(CallerIdentity) bool { return true }

// ShimManager installs the device-added hook and owns the registry of live
// shims, broadcasting reconfiguration triggers to them.
type ShimManager struct {
	filter   CallerFilter
	settings SettingsStore
	logger   Logger

	mu       sync.Mutex
	shims    []*HmdShim
	original TrackedDeviceAddedFunc
}

// NewShimManager creates a manager with the given caller filter; nil means
// AllowAllCallers. A nil settings store defers to the host's own store when a
// device is shimmed.
func NewShimManager(filter CallerFilter, settings SettingsStore, logger Logger) *ShimManager {
	if filter == nil {
		filter = AllowAllCallers
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ShimManager{
		filter:   filter,
		settings: settings,
		logger:   logger,
	}
}

// InstallHook redirects the host's "device added" dispatch-table entry to the
// manager. Installing twice is a no-op; the engine keeps the first captured
// original.
func (m *ShimManager) InstallHook(host *DriverHost) error {
	m.logger.Info("installing TrackedDeviceAdded hook")

	original, err := AttachVirtualMethod(host.DispatchTable(), SlotTrackedDeviceAdded,
		TrackedDeviceAddedFunc(m.trackedDeviceAdded))
	if err != nil {
		return fmt.Errorf("attach TrackedDeviceAdded: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.original == nil {
		m.original = original.(TrackedDeviceAddedFunc)
	}
	return nil
}

// trackedDeviceAdded is the hooked slot-0 callback. Devices of the class of
// interest registered by an allowed caller get wrapped in an HmdShim; the
// captured original is then invoked with either the shim or the unmodified
// device, and its result returned unchanged.
func (m *ShimManager) trackedDeviceAdded(h *DriverHost, serial string, class DeviceClass, device DeviceDriver) bool {
	caller := callerIdentity()

	shimmed := device
	if m.filter(caller) && class == DeviceClassHMD {
		m.logger.Info("shimming new HMD device", "serial", serial)
		settings := m.settings
		if settings == nil {
			settings = h.Settings()
		}
		shim := NewHmdShim(device, h, settings, m.logger)

		m.mu.Lock()
		m.shims = append(m.shims, shim)
		m.mu.Unlock()

		shimmed = shim
	}

	m.mu.Lock()
	original := m.original
	m.mu.Unlock()
	if original == nil {
		// Forwarding through a null original is a fatal misconfiguration;
		// InstallHook must have succeeded before any registration arrives.
		panic("drivershim: TrackedDeviceAdded original not captured")
	}

	return original(h, serial, class, shimmed)
}

// ApplySettingsChanges broadcasts the reconfiguration trigger to every live
// shim.
func (m *ShimManager) ApplySettingsChanges() {
	m.mu.Lock()
	shims := make([]*HmdShim, len(m.shims))
	copy(shims, m.shims)
	m.mu.Unlock()

	for _, shim := range shims {
		shim.ApplySettingsChanges()
	}
}

// Shims returns a snapshot of the live shim registry.
func (m *ShimManager) Shims() []*HmdShim {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*HmdShim, len(m.shims))
	copy(out, m.shims)
	return out
}

// callerIdentity captures the program counter of the registration call site,
// three frames up: past this function, the hooked callback, and the host's
// dispatching TrackedDeviceAdded.
func callerIdentity() CallerIdentity {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return 0
	}
	return CallerIdentity(pc)
}
