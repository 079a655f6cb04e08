package drivershim

import "testing"

func TestPropertyStoreTypedContainers(t *testing.T) {
	p := NewPropertyStore()

	if _, ok := p.String(0, PropSerialNumber); ok {
		t.Error("read from a container that was never written")
	}

	p.SetString(0, PropSerialNumber, "HMD-001")
	p.SetInt32(0, PropDistortionMeshResolution, 64)
	p.SetFloat(0, PropModelNumber, 2.5)

	if got, ok := p.String(0, PropSerialNumber); !ok || got != "HMD-001" {
		t.Errorf("string = %q (%v)", got, ok)
	}
	if got, ok := p.Int32(0, PropDistortionMeshResolution); !ok || got != 64 {
		t.Errorf("int32 = %d (%v)", got, ok)
	}
	if got, ok := p.Float(0, PropModelNumber); !ok || got != 2.5 {
		t.Errorf("float = %v (%v)", got, ok)
	}

	// Containers are per device index.
	if _, ok := p.String(1, PropSerialNumber); ok {
		t.Error("property leaked across device indexes")
	}
}

func TestPropertyStoreHiddenArea(t *testing.T) {
	p := NewPropertyStore()
	mask := [][2]float64{{0, 0}, {0.1, 0}, {0, 0.1}}

	p.SetHiddenArea(0, EyeLeft, HiddenAreaMeshStandard, mask)
	if got := p.HiddenArea(0, EyeLeft, HiddenAreaMeshStandard); len(got) != 3 {
		t.Fatalf("mask has %d vertices", len(got))
	}
	if got := p.HiddenArea(0, EyeLeft, HiddenAreaMeshInverse); got != nil {
		t.Error("unset mesh type returned vertices")
	}

	// An empty vertex list disables the mask.
	p.SetHiddenArea(0, EyeLeft, HiddenAreaMeshStandard, nil)
	if got := p.HiddenArea(0, EyeLeft, HiddenAreaMeshStandard); got != nil {
		t.Error("cleared mask still returns vertices")
	}
}

func TestShimActivateClearsHiddenAreas(t *testing.T) {
	device := newFakeHmd()
	host := newTestHost(nil)
	props := host.Properties()

	// Masks published before the shim takes over.
	for eye := Eye(0); eye < NumEyes; eye++ {
		props.SetHiddenArea(0, eye, HiddenAreaMeshStandard, [][2]float64{{0, 0}, {1, 0}, {0, 1}})
		props.SetHiddenArea(0, eye, HiddenAreaMeshInverse, [][2]float64{{0, 0}, {1, 0}, {0, 1}})
	}

	shim := NewHmdShim(device, host, identitySettings(), NewNopLogger())
	shim.Activate(0)

	for eye := Eye(0); eye < NumEyes; eye++ {
		if props.HiddenArea(0, eye, HiddenAreaMeshStandard) != nil {
			t.Errorf("eye %v standard mask not cleared", eye)
		}
		if props.HiddenArea(0, eye, HiddenAreaMeshInverse) != nil {
			t.Errorf("eye %v inverse mask not cleared", eye)
		}
	}
}
