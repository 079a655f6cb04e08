package drivershim

import "encoding/json"

// SettingsSchemaFile is the filename of the settings surface the shim points
// the host UI at during activation.
const SettingsSchemaFile = "settingsschema.json"

// Control type constants for the settings surface.
const (
	ControlTypeSlider = "slider"
	ControlTypeNumber = "number"
)

// Control describes one user-facing setting of the distortion model.
type Control struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Step    float64 `json:"step,omitempty"`
	Default float64 `json:"default,omitempty"`
}

// SliderControl creates a slider control over [min, max].
func SliderControl(key, name string, min, max, step float64) Control {
	return Control{
		Key:  key,
		Name: name,
		Type: ControlTypeSlider,
		Min:  min,
		Max:  max,
		Step: step,
	}
}

// NumberControl creates a free-form numeric control.
func NumberControl(key, name string) Control {
	return Control{
		Key:  key,
		Name: name,
		Type: ControlTypeNumber,
	}
}

// SettingsSchema is the schema document backing the settings surface.
type SettingsSchema struct {
	SchemaVersion int       `json:"schema_version"`
	Section       string    `json:"section"`
	Controls      []Control `json:"controls"`
}

// DistortionSettingsSchema enumerates every key the shim consumes: the 30
// per-channel parameters and the 10 affine parameters, in the fixed
// "<eye>_<channel>_<param>" / "<eye>_<param>" key form.
func DistortionSettingsSchema() SettingsSchema {
	schema := SettingsSchema{
		SchemaVersion: 1,
		Section:       SettingsSection,
	}

	for eye := Eye(0); eye < NumEyes; eye++ {
		for ch := Channel(0); ch < NumChannels; ch++ {
			prefix := eye.String() + " " + ch.String() + " "
			schema.Controls = append(schema.Controls,
				SliderControl(channelKey(eye, ch, "cod_x"), prefix+"center X", 0, 1, 0.001),
				SliderControl(channelKey(eye, ch, "cod_y"), prefix+"center Y", 0, 1, 0.001),
				NumberControl(channelKey(eye, ch, "k1"), prefix+"k1"),
				NumberControl(channelKey(eye, ch, "k2"), prefix+"k2"),
				NumberControl(channelKey(eye, ch, "k3"), prefix+"k3"),
			)
		}

		prefix := eye.String() + " "
		schema.Controls = append(schema.Controls,
			SliderControl(eyeKey(eye, "focal_length_x"), prefix+"focal length X", 0, 2, 0.001),
			SliderControl(eyeKey(eye, "focal_length_y"), prefix+"focal length Y", 0, 2, 0.001),
			SliderControl(eyeKey(eye, "principal_point_x"), prefix+"principal point X", 0, 1, 0.001),
			SliderControl(eyeKey(eye, "principal_point_y"), prefix+"principal point Y", 0, 1, 0.001),
			NumberControl(eyeKey(eye, "skew_factor"), prefix+"skew factor"),
		)
	}

	return schema
}

// JSON renders the schema document.
func (s SettingsSchema) JSON() []byte {
	data, _ := json.MarshalIndent(s, "", "  ")
	return data
}
