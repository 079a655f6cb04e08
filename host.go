package drivershim

import (
	"sync"

	"github.com/google/uuid"
)

// Slot indices of the DriverHost dispatch table. The ordering is load-bearing:
// hooks attach by slot index, so it must match the host's published contract.
const (
	SlotTrackedDeviceAdded = 0
)

// TrackedDeviceAddedFunc is the function type of dispatch-table slot 0, the
// "device added" notification a plugin raises to register a device.
type TrackedDeviceAddedFunc func(h *DriverHost, serial string, class DeviceClass, device DeviceDriver) bool

type registeredDevice struct {
	serial string
	class  DeviceClass
	device DeviceDriver
	index  DeviceIndex
}

// DriverHost is the owned implementation of the host runtime boundary a
// device plugin operates against: the hookable device-registration callback,
// device bookkeeping, property containers, the settings store, and the
// per-frame event queue. The real host lives in another process; this
// substitute exists so the shim can be composed and exercised at the API
// boundary instead of by patching foreign code.
type DriverHost struct {
	table *DispatchTable

	mu      sync.Mutex
	devices []registeredDevice

	props    *PropertyStore
	settings SettingsStore
	events   *EventQueue
	logger   Logger
}

// NewDriverHost builds a host runtime around the given settings store.
func NewDriverHost(settings SettingsStore, logger Logger) *DriverHost {
	if logger == nil {
		logger = NewNopLogger()
	}
	h := &DriverHost{
		props:    NewPropertyStore(),
		settings: settings,
		events:   NewEventQueue(logger),
		logger:   logger,
	}
	h.table = NewDispatchTable(
		TrackedDeviceAddedFunc(defaultTrackedDeviceAdded),
	)
	return h
}

// DispatchTable exposes the host callback table for interposition.
func (h *DriverHost) DispatchTable() *DispatchTable { return h.table }

// TrackedDeviceAdded registers a device with the host. The call goes through
// dispatch-table slot 0, so an attached hook sees it before the host does.
// It reports whether the host accepted and activated the device.
func (h *DriverHost) TrackedDeviceAdded(serial string, class DeviceClass, device DeviceDriver) bool {
	fn, ok := h.table.Slot(SlotTrackedDeviceAdded).(TrackedDeviceAddedFunc)
	if !ok {
		return false
	}
	return fn(h, serial, class, device)
}

// defaultTrackedDeviceAdded is the host's own slot-0 behavior: record the
// device, assign the next index, and activate it.
func defaultTrackedDeviceAdded(h *DriverHost, serial string, class DeviceClass, device DeviceDriver) bool {
	h.mu.Lock()
	index := DeviceIndex(len(h.devices))
	h.devices = append(h.devices, registeredDevice{
		serial: serial,
		class:  class,
		device: device,
		index:  index,
	})
	h.mu.Unlock()

	h.props.SetString(index, PropSerialNumber, serial)

	status := device.Activate(index)
	if status != InitErrorNone {
		h.logger.Warn("device activation failed", "serial", serial, "status", status.String())
		return false
	}

	h.logger.Info("tracked device added", "serial", serial, "class", int(class), "index", uint32(index))
	return true
}

// Device returns the registered device at index, or nil.
func (h *DriverHost) Device(index DeviceIndex) DeviceDriver {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(index) >= len(h.devices) {
		return nil
	}
	return h.devices[index].device
}

// DeviceCount reports the number of registered devices.
func (h *DriverHost) DeviceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.devices)
}

// Properties exposes the per-device property containers.
func (h *DriverHost) Properties() *PropertyStore { return h.props }

// Settings exposes the host configuration store.
func (h *DriverHost) Settings() SettingsStore { return h.settings }

// Events exposes the host event queue.
func (h *DriverHost) Events() *EventQueue { return h.events }

// PollNextEvent drains the oldest pending host event.
func (h *DriverHost) PollNextEvent() (Event, bool) {
	return h.events.PollNext()
}

// VendorSpecificEvent posts a vendor-defined event for a device, stamped with
// a fresh correlation ID so consumers can trace it through their logs.
func (h *DriverHost) VendorSpecificEvent(index DeviceIndex, eventType string) {
	h.events.Post(Event{
		Type:          eventType,
		DeviceIndex:   index,
		CorrelationID: uuid.New().String(),
	})
}

// NotifySettingsChanged posts the settings-changed event the frame loop
// routes into shim reconfiguration.
func (h *DriverHost) NotifySettingsChanged() {
	h.events.Post(Event{Type: EventSettingsChanged, DeviceIndex: InvalidDeviceIndex})
}
