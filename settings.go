package drivershim

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SettingsSection is the configuration namespace holding every distortion
// parameter this plugin consumes.
const SettingsSection = "driver_distortion_shim"

// SettingsStore is the hierarchical key/value contract the shim reads its
// configuration through. Missing or malformed keys read as zero; the feature
// is opt-in via configuration and no validation is performed.
type SettingsStore interface {
	GetFloat(section, key string) float64
}

// channelKey builds the fixed "<eye>_<channel>_<param>" key for one of the
// 2x3x5 per-channel parameters.
func channelKey(eye Eye, channel Channel, param string) string {
	return fmt.Sprintf("%s_%s_%s", eye, channel, param)
}

// eyeKey builds the fixed "<eye>_<param>" key for one of the 2x5 affine
// parameters.
func eyeKey(eye Eye, param string) string {
	return fmt.Sprintf("%s_%s", eye, param)
}

// ViperSettings is a file-backed SettingsStore. Sections map to top-level
// config keys, so the lens parameters live under the SettingsSection block of
// the file.
type ViperSettings struct {
	v *viper.Viper
}

// NewViperSettings loads the named config file (format inferred from the
// extension).
func NewViperSettings(path string) (*ViperSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return &ViperSettings{v: v}, nil
}

// GetFloat returns the float value at section.key, or 0 when absent.
func (s *ViperSettings) GetFloat(section, key string) float64 {
	return s.v.GetFloat64(section + "." + key)
}

// Watch posts a settings-changed event into the host event queue whenever the
// backing file is rewritten, so the frame loop picks the change up on its
// next pass.
func (s *ViperSettings) Watch(queue *EventQueue) {
	s.v.OnConfigChange(func(fsnotify.Event) {
		queue.Post(Event{Type: EventSettingsChanged, DeviceIndex: InvalidDeviceIndex})
	})
	s.v.WatchConfig()
}

// MapSettings is an in-memory SettingsStore keyed by "section.key". It backs
// tests and the shimtool defaults.
type MapSettings map[string]float64

// GetFloat returns the stored value, or 0 when absent.
func (m MapSettings) GetFloat(section, key string) float64 {
	return m[section+"."+key]
}

// Set stores a value under section.key.
func (m MapSettings) Set(section, key string, value float64) {
	m[section+"."+key] = value
}
