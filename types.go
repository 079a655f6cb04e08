package drivershim

// Eye selects one of the two optical paths of a head-mounted display.
type Eye int

const (
	EyeLeft  Eye = 0
	EyeRight Eye = 1

	NumEyes = 2
)

func (e Eye) String() string {
	if e == EyeRight {
		return "right"
	}
	return "left"
}

// Channel selects a color channel of the distortion mapping.
type Channel int

const (
	ChannelRed   Channel = 0
	ChannelGreen Channel = 1
	ChannelBlue  Channel = 2

	NumChannels = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	}
	return "red"
}

// DeviceClass identifies the kind of tracked device a plugin registers.
type DeviceClass int

const (
	DeviceClassInvalid DeviceClass = iota
	DeviceClassHMD
	DeviceClassController
	DeviceClassGenericTracker
	DeviceClassTrackingReference
)

// DeviceIndex is the host-assigned slot of an activated device. It is valid
// only between Activate and Deactivate.
type DeviceIndex uint32

// InvalidDeviceIndex marks a device that is not currently activated.
const InvalidDeviceIndex DeviceIndex = 0xFFFFFFFF

// InitError is the status code contract shared between the host and device
// drivers. Forwarded calls propagate these values unmodified.
type InitError int

const (
	InitErrorNone              InitError = 0
	InitErrorHmdNotFound       InitError = 101
	InitErrorInterfaceNotFound InitError = 105
)

func (e InitError) String() string {
	switch e {
	case InitErrorNone:
		return "none"
	case InitErrorHmdNotFound:
		return "hmd_not_found"
	case InitErrorInterfaceNotFound:
		return "interface_not_found"
	}
	return "unknown"
}

// Viewport is the pixel rectangle an eye renders into.
type Viewport struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// RawProjection holds the per-eye half-angle tangent extents of the field of
// view. These apertures are the normalization basis for distortion output
// coordinates, not the pixel viewport.
type RawProjection struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// DistortionCoordinates is a backward output-to-source mapping: for a
// requested distorted output location it names, per color channel, the
// normalized source-image coordinate the renderer should sample.
type DistortionCoordinates struct {
	Red   [2]float64
	Green [2]float64
	Blue  [2]float64
}

// Pose is the minimal pose surface the shim forwards. The wrapped device owns
// its contents entirely.
type Pose struct {
	Valid     bool
	Connected bool
	Position  [3]float64
	Rotation  [4]float64
}

// HiddenAreaMeshType selects which per-eye visibility mask a call addresses.
type HiddenAreaMeshType int

const (
	HiddenAreaMeshStandard HiddenAreaMeshType = iota
	HiddenAreaMeshInverse
	HiddenAreaMeshLineLoop
)

// Host event types consumed and produced by the shim.
const (
	// EventSettingsChanged is delivered by the host frame loop whenever any
	// driver settings section changed. It is the sole reconfiguration trigger
	// besides activation.
	EventSettingsChanged = "settings_changed"

	// EventLensDistortionChanged is the vendor event the shim posts so the
	// host invalidates any cached distortion mesh.
	EventLensDistortionChanged = "lens_distortion_changed"
)

// Event is a host event queue entry.
type Event struct {
	Type          string      `json:"type"`
	DeviceIndex   DeviceIndex `json:"device_index"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	TSUnixMs      int64       `json:"ts_unix_ms"`
}
