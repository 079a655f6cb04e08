package drivershim

// Component names requested through DeviceDriver.GetComponent. The strings are
// part of the host ABI: a device advertises a capability by returning a
// non-nil value for the matching name.
const (
	// ComponentDisplay is the display-output capability (implemented by the shim).
	ComponentDisplay = "DisplayComponent_002"

	// ComponentDriverDirectMode marks a device that manages its own rendering
	// path instead of delegating to the host compositor.
	ComponentDriverDirectMode = "DriverDirectModeComponent_001"

	// ComponentVirtualDisplay likewise marks a device with its own rendering path.
	ComponentVirtualDisplay = "VirtualDisplayComponent_001"
)

// InterfaceVersions lists the boundary contracts this plugin implements, in
// the fixed order the host expects.
var InterfaceVersions = []string{
	DeviceProviderVersion,
	ComponentDisplay,
}

// DeviceProviderVersion names the provider contract served by DriverFactory.
const DeviceProviderVersion = "DeviceProvider_004"

// DeviceDriver is the per-device contract a plugin registers with the host.
// Method order is load-bearing: the host dispatches by table slot, so
// implementations must present exactly this surface.
type DeviceDriver interface {
	// Activate is called when the host assigns the device its index. The
	// index is valid until Deactivate.
	Activate(index DeviceIndex) InitError

	// Deactivate releases the device. There is no reactivation.
	Deactivate()

	EnterStandby()

	// GetComponent returns the named capability, or nil when the device does
	// not implement it.
	GetComponent(nameAndVersion string) any

	// DebugRequest answers an opaque introspection request.
	DebugRequest(request string) string

	GetPose() Pose
}

// DisplayComponent is the display-output capability of an HMD device.
type DisplayComponent interface {
	// GetWindowBounds reports the legacy extended-mode window placement.
	GetWindowBounds() (x, y int32, width, height uint32)

	IsDisplayOnDesktop() bool
	IsDisplayRealDisplay() bool

	GetRecommendedRenderTargetSize() (width, height uint32)

	GetEyeOutputViewport(eye Eye) Viewport

	// GetProjectionRaw reports the half-angle tangent extents of the eye's
	// field of view.
	GetProjectionRaw(eye Eye) RawProjection

	// ComputeDistortion maps a normalized output-viewport coordinate in
	// [0,1]^2 to three per-channel normalized source-image coordinates.
	ComputeDistortion(eye Eye, u, v float64) DistortionCoordinates

	// ComputeInverseDistortion maps a source coordinate back to the output
	// viewport. The second result reports whether the device supports it.
	ComputeInverseDistortion(eye Eye, channel Channel, u, v float64) ([2]float64, bool)
}

// DeviceProvider is the plugin-level contract the host drives: one instance
// per loaded plugin library, obtained through DriverFactory.
type DeviceProvider interface {
	// Init is called once after the plugin is loaded, with the host runtime
	// the plugin will operate against.
	Init(host *DriverHost) InitError

	Cleanup()

	InterfaceVersions() []string

	// RunFrame is called by the host once per frame; it is where the provider
	// polls the host event queue.
	RunFrame()

	ShouldBlockStandbyMode() bool
	EnterStandby()
	LeaveStandby()
}
