package drivershim

import (
	"testing"
)

// fakeDisplay is a DisplayComponent with canned geometry and call counters.
type fakeDisplay struct {
	vp   Viewport
	proj RawProjection

	computeCalls int
	inverseCalls int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		vp:   Viewport{Width: 1000, Height: 1000},
		proj: RawProjection{Left: -1, Right: 1, Top: -1, Bottom: 1},
	}
}

func (d *fakeDisplay) GetWindowBounds() (x, y int32, width, height uint32) {
	return 10, 20, d.vp.Width * 2, d.vp.Height
}

func (d *fakeDisplay) IsDisplayOnDesktop() bool { return false }

func (d *fakeDisplay) IsDisplayRealDisplay() bool { return true }

func (d *fakeDisplay) GetRecommendedRenderTargetSize() (uint32, uint32) {
	return d.vp.Width, d.vp.Height
}

func (d *fakeDisplay) GetEyeOutputViewport(eye Eye) Viewport { return d.vp }

func (d *fakeDisplay) GetProjectionRaw(eye Eye) RawProjection { return d.proj }

// ComputeDistortion returns marker coordinates so tests can tell a forwarded
// call from a shim-served one.
func (d *fakeDisplay) ComputeDistortion(eye Eye, u, v float64) DistortionCoordinates {
	d.computeCalls++
	marker := [2]float64{-7, -7}
	return DistortionCoordinates{Red: marker, Green: marker, Blue: marker}
}

func (d *fakeDisplay) ComputeInverseDistortion(eye Eye, channel Channel, u, v float64) ([2]float64, bool) {
	d.inverseCalls++
	return [2]float64{u, v}, true
}

// fakeDevice is a DeviceDriver with a configurable activation status and an
// optional display component.
type fakeDevice struct {
	activateStatus InitError
	display        *fakeDisplay
	directMode     bool

	activatedAt   DeviceIndex
	activateCalls int
	deactivated   bool
	standby       bool
}

// fakeDirectMode stands in for a direct-mode rendering component; the shim
// only cares that the query resolves.
type fakeDirectMode struct{}

func newFakeHmd() *fakeDevice {
	return &fakeDevice{display: newFakeDisplay(), activatedAt: InvalidDeviceIndex}
}

func (d *fakeDevice) Activate(index DeviceIndex) InitError {
	d.activateCalls++
	d.activatedAt = index
	return d.activateStatus
}

func (d *fakeDevice) Deactivate() { d.deactivated = true }

func (d *fakeDevice) EnterStandby() { d.standby = true }

func (d *fakeDevice) GetComponent(nameAndVersion string) any {
	switch nameAndVersion {
	case ComponentDisplay:
		if d.display != nil {
			return DisplayComponent(d.display)
		}
	case ComponentDriverDirectMode:
		if d.directMode {
			return &fakeDirectMode{}
		}
	}
	return nil
}

func (d *fakeDevice) DebugRequest(request string) string { return "debug:" + request }

func (d *fakeDevice) GetPose() Pose { return Pose{Valid: true} }

func newTestHost(settings SettingsStore) *DriverHost {
	if settings == nil {
		settings = identitySettings()
	}
	return NewDriverHost(settings, NewNopLogger())
}

func TestShimActivateConfiguresOverride(t *testing.T) {
	device := newFakeHmd()
	host := newTestHost(nil)
	shim := NewHmdShim(device, host, identitySettings(), NewNopLogger())

	if status := shim.Activate(4); status != InitErrorNone {
		t.Fatalf("Activate = %v, want none", status)
	}
	if device.activatedAt != 4 {
		t.Errorf("wrapped device activated at %v, want 4", device.activatedAt)
	}
	if shim.DeviceIndex() != 4 {
		t.Errorf("shim index = %v, want 4", shim.DeviceIndex())
	}

	props := host.Properties()
	if got, ok := props.String(4, PropResourceRoot); !ok || got != "distortion_shim" {
		t.Errorf("resource root = %q (%v)", got, ok)
	}
	want := "{distortion_shim}/settings/" + SettingsSchemaFile
	if got, ok := props.String(4, PropAdditionalDeviceSettingsPath); !ok || got != want {
		t.Errorf("settings path = %q, want %q", got, want)
	}

	if !shim.Engine().Loaded() {
		t.Error("distortion model not loaded during activation")
	}
}

func TestShimActivateForwardsFailureStatus(t *testing.T) {
	device := newFakeHmd()
	device.activateStatus = InitErrorHmdNotFound
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())

	if status := shim.Activate(0); status != InitErrorHmdNotFound {
		t.Errorf("Activate = %v, want the wrapped device's failure", status)
	}
}

func TestShimActivateWithoutDisplay(t *testing.T) {
	device := newFakeHmd()
	device.display = nil
	host := newTestHost(nil)
	shim := NewHmdShim(device, host, identitySettings(), NewNopLogger())

	if status := shim.Activate(0); status != InitErrorNone {
		t.Fatalf("Activate = %v", status)
	}
	if _, ok := host.Properties().String(0, PropResourceRoot); ok {
		t.Error("resource root published for a display-less device")
	}
	if shim.Engine().Loaded() {
		t.Error("distortion model loaded without a display")
	}
}

func TestShimDeactivateInvalidatesIndex(t *testing.T) {
	device := newFakeHmd()
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())

	shim.Activate(2)
	shim.Deactivate()

	if !device.deactivated {
		t.Error("wrapped device not deactivated")
	}
	if shim.DeviceIndex() != InvalidDeviceIndex {
		t.Errorf("index = %v after deactivation, want invalid", shim.DeviceIndex())
	}
}

func TestShimGetComponentSubstitutesDisplay(t *testing.T) {
	device := newFakeHmd()
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())

	got := shim.GetComponent(ComponentDisplay)
	display, ok := got.(DisplayComponent)
	if !ok {
		t.Fatalf("display query returned %T", got)
	}
	if display != DisplayComponent(shim) {
		t.Error("display component is not the shim itself")
	}

	if shim.GetComponent("UnknownComponent_001") != nil {
		t.Error("unknown component query returned non-nil")
	}
}

func TestShimDirectModeDisablesOverride(t *testing.T) {
	device := newFakeHmd()
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())
	shim.Activate(0)

	// The shim serves the model while the device renders through the host.
	coords := shim.ComputeDistortion(EyeLeft, 0.25, 0.75)
	if coords.Red != ([2]float64{0.25, 0.75}) {
		t.Fatalf("shim-served red = %v, want identity", coords.Red)
	}
	if device.display.computeCalls != 0 {
		t.Fatalf("wrapped ComputeDistortion called %d times", device.display.computeCalls)
	}

	// Direct mode marks the device as owning its rendering path.
	device.directMode = true
	shim.GetComponent(ComponentDriverDirectMode)

	coords = shim.ComputeDistortion(EyeLeft, 0.25, 0.75)
	if coords.Red != ([2]float64{-7, -7}) {
		t.Errorf("direct-mode red = %v, want the wrapped marker", coords.Red)
	}
	if device.display.computeCalls != 1 {
		t.Errorf("wrapped ComputeDistortion called %d times, want 1", device.display.computeCalls)
	}
}

func TestShimComputeDistortionFallsBack(t *testing.T) {
	device := newFakeHmd()
	device.display.proj = RawProjection{} // degenerate apertures
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())
	shim.Activate(0)

	coords := shim.ComputeDistortion(EyeLeft, 0.5, 0.5)
	if coords.Red != ([2]float64{-7, -7}) {
		t.Errorf("red = %v, want forwarded marker when the model is unusable", coords.Red)
	}
}

func TestShimForwardsUnmodified(t *testing.T) {
	device := newFakeHmd()
	shim := NewHmdShim(device, newTestHost(nil), identitySettings(), NewNopLogger())
	shim.Activate(0)

	if got := shim.DebugRequest("ping"); got != "debug:ping" {
		t.Errorf("DebugRequest = %q", got)
	}
	if !shim.GetPose().Valid {
		t.Error("GetPose not forwarded")
	}
	if got := shim.GetEyeOutputViewport(EyeLeft); got != device.display.vp {
		t.Errorf("viewport = %v", got)
	}
	if got := shim.GetProjectionRaw(EyeRight); got != device.display.proj {
		t.Errorf("projection = %v", got)
	}
	if w, h := shim.GetRecommendedRenderTargetSize(); w != 1000 || h != 1000 {
		t.Errorf("render target size = %dx%d", w, h)
	}
	if !shim.IsDisplayRealDisplay() || shim.IsDisplayOnDesktop() {
		t.Error("display flags not forwarded")
	}

	if got, ok := shim.ComputeInverseDistortion(EyeLeft, ChannelGreen, 0.3, 0.4); !ok || got != ([2]float64{0.3, 0.4}) {
		t.Errorf("inverse = %v (%v), want forwarded identity", got, ok)
	}
	if device.display.inverseCalls != 1 {
		t.Errorf("wrapped inverse called %d times, want 1", device.display.inverseCalls)
	}

	shim.EnterStandby()
	if !device.standby {
		t.Error("EnterStandby not forwarded")
	}
}

func TestShimApplySettingsChanges(t *testing.T) {
	settings := identitySettings()
	device := newFakeHmd()
	host := newTestHost(settings)
	shim := NewHmdShim(device, host, settings, NewNopLogger())
	shim.Activate(3)

	// Unchanged settings post nothing.
	shim.ApplySettingsChanges()
	if _, ok := host.PollNextEvent(); ok {
		t.Fatal("event posted for unchanged settings")
	}

	settings.Set(SettingsSection, channelKey(EyeLeft, ChannelRed, "k1"), -0.05)
	shim.ApplySettingsChanges()

	event, ok := host.PollNextEvent()
	if !ok {
		t.Fatal("no event after a model change")
	}
	if event.Type != EventLensDistortionChanged {
		t.Errorf("event type = %q", event.Type)
	}
	if event.DeviceIndex != 3 {
		t.Errorf("event device = %v, want 3", event.DeviceIndex)
	}
	if event.CorrelationID == "" {
		t.Error("vendor event missing correlation id")
	}

	// Reapplying the same settings posts nothing further.
	shim.ApplySettingsChanges()
	if _, ok := host.PollNextEvent(); ok {
		t.Error("event posted for a second identical reload")
	}
}

func TestShimApplySettingsChangesDirectMode(t *testing.T) {
	settings := identitySettings()
	device := newFakeHmd()
	device.directMode = true
	host := newTestHost(settings)
	shim := NewHmdShim(device, host, settings, NewNopLogger())
	shim.GetComponent(ComponentDriverDirectMode)
	shim.Activate(0)

	settings.Set(SettingsSection, channelKey(EyeLeft, ChannelRed, "k1"), -0.05)
	shim.ApplySettingsChanges()
	if _, ok := host.PollNextEvent(); ok {
		t.Error("direct-mode shim posted a reconfiguration event")
	}
}
