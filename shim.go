package drivershim

import "sync"

// HmdShim wraps a registered HMD device driver and its display component,
// forwarding every call to the wrapped device while overriding the
// distortion-relevant methods. The host holds the shim where it would hold
// the device; the shim lives as long as that reference.
type HmdShim struct {
	wrapped DeviceDriver
	host    *DriverHost
	logger  Logger
	engine  *DistortionEngine

	mu            sync.Mutex
	deviceIndex   DeviceIndex
	display       DisplayComponent
	notDirectMode bool
	activated     bool
}

// NewHmdShim wraps an HMD device registered with the given host. The
// distortion model is read from settings under SettingsSection.
func NewHmdShim(wrapped DeviceDriver, host *DriverHost, settings SettingsStore, logger Logger) *HmdShim {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &HmdShim{
		wrapped:     wrapped,
		host:        host,
		logger:      logger,
		engine:      NewDistortionEngine(settings, SettingsSection),
		deviceIndex: InvalidDeviceIndex,
	}
}

// Wrapped returns the device this shim forwards to.
func (s *HmdShim) Wrapped() DeviceDriver { return s.wrapped }

// DeviceIndex returns the assigned index, valid only between Activate and
// Deactivate.
func (s *HmdShim) DeviceIndex() DeviceIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceIndex
}

// Activate forwards to the wrapped device first, preserving its
// initialization ordering, then configures the distortion override when the
// device exposes a display component and renders through the host compositor.
// The wrapped device's status is returned unmodified.
func (s *HmdShim) Activate(index DeviceIndex) InitError {
	s.mu.Lock()
	s.deviceIndex = index
	s.mu.Unlock()

	status := s.wrapped.Activate(index)

	// Acquire the display component.
	display, _ := s.wrapped.GetComponent(ComponentDisplay).(DisplayComponent)

	s.mu.Lock()
	if display != nil {
		s.display = display
	}
	display = s.display
	notDirectMode := s.notDirectMode
	s.activated = true
	s.mu.Unlock()

	if display != nil && !notDirectMode {
		props := s.host.Properties()

		// Point the user-facing settings surface at this shim.
		props.SetString(index, PropResourceRoot, "distortion_shim")
		props.SetString(index, PropAdditionalDeviceSettingsPath,
			"{distortion_shim}/settings/"+SettingsSchemaFile)

		// Populate the distortion parameters from configuration.
		s.engine.Reload(s.eyeViewports(display))

		// The host's default visibility masks no longer match the new
		// distortion; disable them. Substituting corrected masks is an
		// unimplemented extension point.
		for eye := Eye(0); eye < NumEyes; eye++ {
			props.SetHiddenArea(index, eye, HiddenAreaMeshStandard, nil)
			props.SetHiddenArea(index, eye, HiddenAreaMeshInverse, nil)
		}

		s.logger.Info("distortion override active", "index", uint32(index))
	}

	return status
}

// Deactivate invalidates the assigned index and forwards. The shim is not
// reactivated afterwards.
func (s *HmdShim) Deactivate() {
	s.mu.Lock()
	s.deviceIndex = InvalidDeviceIndex
	s.mu.Unlock()

	s.wrapped.Deactivate()

	s.logger.Info("deactivated shimmed device")
}

func (s *HmdShim) EnterStandby() {
	s.wrapped.EnterStandby()
}

// GetComponent forwards the capability query and inspects the result: the
// display component is captured and replaced with the shim so later display
// calls route through it; a direct-mode or virtual-display component marks
// the device as managing its own rendering path, disabling the distortion
// override.
func (s *HmdShim) GetComponent(nameAndVersion string) any {
	component := s.wrapped.GetComponent(nameAndVersion)
	s.logger.Debug("GetComponent", "name", nameAndVersion, "found", component != nil)
	if component == nil {
		return nil
	}

	switch nameAndVersion {
	case ComponentDisplay:
		if display, ok := component.(DisplayComponent); ok {
			s.mu.Lock()
			s.display = display
			s.mu.Unlock()
			return DisplayComponent(s)
		}
	case ComponentDriverDirectMode, ComponentVirtualDisplay:
		// A device with its own rendering path does not distort through the
		// host compositor.
		s.mu.Lock()
		s.notDirectMode = true
		s.mu.Unlock()
	}
	return component
}

func (s *HmdShim) DebugRequest(request string) string {
	return s.wrapped.DebugRequest(request)
}

func (s *HmdShim) GetPose() Pose {
	return s.wrapped.GetPose()
}

// GetWindowBounds is not used by devices rendering through the host
// compositor; forwarded for the others.
func (s *HmdShim) GetWindowBounds() (x, y int32, width, height uint32) {
	return s.displayComponent().GetWindowBounds()
}

func (s *HmdShim) IsDisplayOnDesktop() bool {
	return s.displayComponent().IsDisplayOnDesktop()
}

func (s *HmdShim) IsDisplayRealDisplay() bool {
	return s.displayComponent().IsDisplayRealDisplay()
}

// GetRecommendedRenderTargetSize is forwarded unmodified. A new distortion
// model that shifts pixel density would adjust the resolution here.
func (s *HmdShim) GetRecommendedRenderTargetSize() (width, height uint32) {
	return s.displayComponent().GetRecommendedRenderTargetSize()
}

// GetEyeOutputViewport is forwarded unmodified; changing the distortion does
// not move the per-eye viewports.
func (s *HmdShim) GetEyeOutputViewport(eye Eye) Viewport {
	return s.displayComponent().GetEyeOutputViewport(eye)
}

// GetProjectionRaw is forwarded unmodified. A new distortion model that
// changes the usable field of view would adjust the apertures here.
func (s *HmdShim) GetProjectionRaw(eye Eye) RawProjection {
	return s.displayComponent().GetProjectionRaw(eye)
}

// ComputeDistortion serves the configured lens model for devices rendering
// through the host compositor; everything else is forwarded unmodified.
func (s *HmdShim) ComputeDistortion(eye Eye, u, v float64) DistortionCoordinates {
	display := s.displayComponent()

	s.mu.Lock()
	notDirectMode := s.notDirectMode
	s.mu.Unlock()

	if !notDirectMode {
		vp := display.GetEyeOutputViewport(eye)
		proj := display.GetProjectionRaw(eye)
		if coords, ok := s.engine.Compute(eye, u, v, vp, proj); ok {
			return coords
		}
	}
	return display.ComputeDistortion(eye, u, v)
}

// ComputeInverseDistortion is always forwarded: no inverse of the configured
// model is computed. Documented forward-only behavior.
func (s *HmdShim) ComputeInverseDistortion(eye Eye, channel Channel, u, v float64) ([2]float64, bool) {
	return s.displayComponent().ComputeInverseDistortion(eye, channel, u, v)
}

// ApplySettingsChanges re-reads the distortion model; when it changed, the
// host is told lens distortion changed so any cached distortion mesh is
// recomputed. Recomputing visibility masks on change is an unimplemented
// extension point.
func (s *HmdShim) ApplySettingsChanges() {
	s.mu.Lock()
	display := s.display
	notDirectMode := s.notDirectMode
	index := s.deviceIndex
	s.mu.Unlock()

	// Nothing to do unless the shim hooked a compositor-driven display.
	if display == nil || notDirectMode {
		return
	}

	if changed := s.engine.Reload(s.eyeViewports(display)); changed {
		s.logger.Info("distortion model changed", "index", uint32(index))
		s.host.VendorSpecificEvent(index, EventLensDistortionChanged)
	}
}

// Engine exposes the distortion engine, for introspection and tests.
func (s *HmdShim) Engine() *DistortionEngine { return s.engine }

func (s *HmdShim) displayComponent() DisplayComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

func (s *HmdShim) eyeViewports(display DisplayComponent) [NumEyes]Viewport {
	return [NumEyes]Viewport{
		display.GetEyeOutputViewport(EyeLeft),
		display.GetEyeOutputViewport(EyeRight),
	}
}
