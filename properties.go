package drivershim

import "sync"

// Property identifies a typed entry in a device's property container.
type Property int

const (
	// PropResourceRoot points user-facing resource lookups at this plugin.
	PropResourceRoot Property = iota + 1
	// PropAdditionalDeviceSettingsPath names the settings surface the host UI
	// renders for the device.
	PropAdditionalDeviceSettingsPath
	// PropDistortionMeshResolution controls the tessellation of the host's
	// cached distortion mesh.
	PropDistortionMeshResolution
	// PropSerialNumber is the device serial the plugin registered with.
	PropSerialNumber
	// PropModelNumber is the device model reported by the wrapped driver.
	PropModelNumber
)

type propertySet struct {
	strings map[Property]string
	int32s  map[Property]int32
	floats  map[Property]float64
}

type hiddenAreaKey struct {
	eye  Eye
	mesh HiddenAreaMeshType
}

// PropertyStore holds the per-device property containers and hidden-area
// meshes the host exposes to drivers. Containers are addressed by device
// index and created on first write.
type PropertyStore struct {
	mu         sync.RWMutex
	containers map[DeviceIndex]*propertySet
	hiddenArea map[DeviceIndex]map[hiddenAreaKey][][2]float64
}

// NewPropertyStore returns an empty property store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{
		containers: make(map[DeviceIndex]*propertySet),
		hiddenArea: make(map[DeviceIndex]map[hiddenAreaKey][][2]float64),
	}
}

func (p *PropertyStore) container(index DeviceIndex) *propertySet {
	set, ok := p.containers[index]
	if !ok {
		set = &propertySet{
			strings: make(map[Property]string),
			int32s:  make(map[Property]int32),
			floats:  make(map[Property]float64),
		}
		p.containers[index] = set
	}
	return set
}

// SetString writes a string property on the device's container.
func (p *PropertyStore) SetString(index DeviceIndex, prop Property, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.container(index).strings[prop] = value
}

// String reads a string property.
func (p *PropertyStore) String(index DeviceIndex, prop Property) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.containers[index]
	if !ok {
		return "", false
	}
	v, ok := set.strings[prop]
	return v, ok
}

// SetInt32 writes an int32 property.
func (p *PropertyStore) SetInt32(index DeviceIndex, prop Property, value int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.container(index).int32s[prop] = value
}

// Int32 reads an int32 property.
func (p *PropertyStore) Int32(index DeviceIndex, prop Property) (int32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.containers[index]
	if !ok {
		return 0, false
	}
	v, ok := set.int32s[prop]
	return v, ok
}

// SetFloat writes a float property.
func (p *PropertyStore) SetFloat(index DeviceIndex, prop Property, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.container(index).floats[prop] = value
}

// Float reads a float property.
func (p *PropertyStore) Float(index DeviceIndex, prop Property) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.containers[index]
	if !ok {
		return 0, false
	}
	v, ok := set.floats[prop]
	return v, ok
}

// SetHiddenArea replaces the visibility mask for one eye and mesh type.
// A nil or empty vertex list disables the mask.
func (p *PropertyStore) SetHiddenArea(index DeviceIndex, eye Eye, mesh HiddenAreaMeshType, vertices [][2]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	meshes, ok := p.hiddenArea[index]
	if !ok {
		meshes = make(map[hiddenAreaKey][][2]float64)
		p.hiddenArea[index] = meshes
	}
	key := hiddenAreaKey{eye: eye, mesh: mesh}
	if len(vertices) == 0 {
		delete(meshes, key)
		return
	}
	meshes[key] = vertices
}

// HiddenArea returns the visibility mask for one eye and mesh type, or nil
// when the mask is disabled.
func (p *PropertyStore) HiddenArea(index DeviceIndex, eye Eye, mesh HiddenAreaMeshType) [][2]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	meshes, ok := p.hiddenArea[index]
	if !ok {
		return nil
	}
	return meshes[hiddenAreaKey{eye: eye, mesh: mesh}]
}
