package drivershim

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// DistortionChannel holds the radial distortion parameters of one color
// channel: the principal point (in pixels of the eye's output viewport) and
// the even-order radial coefficients. Despite the Brown-Conrady nomenclature
// there is no tangential term; the radial polynomial approximation is the
// whole model.
type DistortionChannel struct {
	CodX float64
	CodY float64
	K1   float64
	K2   float64
	K3   float64
}

// affineParams are one eye's camera matrix parameters, already scaled to
// viewport pixels.
type affineParams struct {
	FocalX     float64
	FocalY     float64
	PrincipalX float64
	PrincipalY float64
	Skew       float64
}

// distortionState is one immutable generation of the model. Reload swaps the
// whole state through an atomic pointer so a render-thread query never
// observes a partially-updated model.
type distortionState struct {
	model     [NumEyes][NumChannels]DistortionChannel
	affine    [NumEyes]affineParams
	invAffine [NumEyes]*mat.Dense
}

// DistortionEngine computes the per-channel backward remapping from a
// configurable lens model, reloading it on demand with change detection.
type DistortionEngine struct {
	settings SettingsStore
	section  string
	state    atomic.Pointer[distortionState]
}

// NewDistortionEngine creates an engine reading its parameters from the given
// section of the settings store. The model is empty until the first Reload.
func NewDistortionEngine(settings SettingsStore, section string) *DistortionEngine {
	return &DistortionEngine{settings: settings, section: section}
}

// Reload re-reads all 2x3x5 channel parameters and 2x5 affine parameters,
// scaling pixel-space values by that eye's viewport dimensions, and compares
// the fresh model against the active one. On any difference it replaces the
// active model, recomputes both affine inverses, and reports true; otherwise
// it reports false and leaves the active state untouched.
func (e *DistortionEngine) Reload(viewports [NumEyes]Viewport) bool {
	next := &distortionState{}

	for eye := Eye(0); eye < NumEyes; eye++ {
		width := float64(viewports[eye].Width)
		height := float64(viewports[eye].Height)

		for ch := Channel(0); ch < NumChannels; ch++ {
			next.model[eye][ch] = DistortionChannel{
				CodX: e.getFloat(channelKey(eye, ch, "cod_x")) * width,
				CodY: e.getFloat(channelKey(eye, ch, "cod_y")) * height,
				K1:   e.getFloat(channelKey(eye, ch, "k1")),
				K2:   e.getFloat(channelKey(eye, ch, "k2")),
				K3:   e.getFloat(channelKey(eye, ch, "k3")),
			}
		}

		next.affine[eye] = affineParams{
			FocalX:     e.getFloat(eyeKey(eye, "focal_length_x")) * width,
			FocalY:     e.getFloat(eyeKey(eye, "focal_length_y")) * height,
			PrincipalX: e.getFloat(eyeKey(eye, "principal_point_x")) * width,
			PrincipalY: e.getFloat(eyeKey(eye, "principal_point_y")) * height,
			Skew:       e.getFloat(eyeKey(eye, "skew_factor")),
		}
	}

	cur := e.state.Load()
	if cur != nil && cur.bits() == next.bits() {
		return false
	}

	for eye := Eye(0); eye < NumEyes; eye++ {
		next.invAffine[eye] = invertAffine(next.affine[eye])
	}

	e.state.Store(next)
	return true
}

// paramBits is the bit image of every model parameter, in read order.
type paramBits [NumEyes * (NumChannels*5 + 5)]uint64

// bits flattens the parameters to their IEEE 754 bit patterns. Change
// detection compares these, not float values: malformed configuration is
// tolerated, so a NaN parameter must compare equal to itself instead of
// reporting a change on every reload.
func (s *distortionState) bits() paramBits {
	var img paramBits
	i := 0
	put := func(v float64) {
		img[i] = math.Float64bits(v)
		i++
	}
	for eye := Eye(0); eye < NumEyes; eye++ {
		for ch := Channel(0); ch < NumChannels; ch++ {
			m := s.model[eye][ch]
			put(m.CodX)
			put(m.CodY)
			put(m.K1)
			put(m.K2)
			put(m.K3)
		}
		a := s.affine[eye]
		put(a.FocalX)
		put(a.FocalY)
		put(a.PrincipalX)
		put(a.PrincipalY)
		put(a.Skew)
	}
	return img
}

func (e *DistortionEngine) getFloat(key string) float64 {
	if e.settings == nil {
		return 0
	}
	return e.settings.GetFloat(e.section, key)
}

// Loaded reports whether a model has been populated.
func (e *DistortionEngine) Loaded() bool { return e.state.Load() != nil }

// Model returns the active per-channel parameters, for introspection.
func (e *DistortionEngine) Model() ([NumEyes][NumChannels]DistortionChannel, bool) {
	st := e.state.Load()
	if st == nil {
		return [NumEyes][NumChannels]DistortionChannel{}, false
	}
	return st.model, true
}

// Compute maps a normalized output coordinate (u, v) in [0,1]^2 to the three
// per-channel source coordinates, using the eye's viewport for pixel
// conversion and its raw projection apertures as the normalization basis.
// It reports false when no model is loaded or the aperture sums are zero, in
// which case the caller should forward the query unmodified.
func (e *DistortionEngine) Compute(eye Eye, u, v float64, vp Viewport, proj RawProjection) (DistortionCoordinates, bool) {
	st := e.state.Load()
	if st == nil {
		return DistortionCoordinates{}, false
	}

	left := math.Abs(proj.Left)
	right := math.Abs(proj.Right)
	top := math.Abs(proj.Top)
	bottom := math.Abs(proj.Bottom)
	horizontalAperture := left + right
	verticalAperture := top + bottom
	if horizontalAperture == 0 || verticalAperture == 0 {
		return DistortionCoordinates{}, false
	}

	x := u * float64(vp.Width)
	y := v * float64(vp.Height)

	remap := func(ch Channel) [2]float64 {
		rx, ry := brownConrady(x, y, st.invAffine[eye], st.model[eye][ch])
		return [2]float64{
			(rx + left) / horizontalAperture,
			(ry + top) / verticalAperture,
		}
	}

	return DistortionCoordinates{
		Red:   remap(ChannelRed),
		Green: remap(ChannelGreen),
		Blue:  remap(ChannelBlue),
	}, true
}

// brownConrady applies the radial polynomial around the channel's principal
// point, then reprojects the warped pixel through the inverse camera matrix
// with a perspective division. The scale d is applied as-is, without
// clamping: out-of-range parameters produce an inverted image, not an error.
func brownConrady(x, y float64, invAffine *mat.Dense, ch DistortionChannel) (float64, float64) {
	dx := x - ch.CodX
	dy := y - ch.CodY
	r2 := dx*dx + dy*dy
	d := 1 + r2*(ch.K1+r2*(ch.K2+r2*ch.K3))

	// Warped point in projective pixel space, as a row vector (px, py, 1, 1).
	px := dx*d + ch.CodX
	py := dy*d + ch.CodY

	rx := px*invAffine.At(0, 0) + py*invAffine.At(1, 0) + invAffine.At(2, 0) + invAffine.At(3, 0)
	ry := px*invAffine.At(0, 1) + py*invAffine.At(1, 1) + invAffine.At(2, 1) + invAffine.At(3, 1)
	rw := px*invAffine.At(0, 3) + py*invAffine.At(1, 3) + invAffine.At(2, 3) + invAffine.At(3, 3)

	return rx / rw, ry / rw
}

// invertAffine builds the eye's camera matrix (row-vector convention) and
// inverts it. A singular matrix yields a degenerate mapping, consistent with
// the no-validation contract for configuration values.
func invertAffine(p affineParams) *mat.Dense {
	affine := mat.NewDense(4, 4, []float64{
		p.FocalX, 0, 0, 0,
		p.Skew, p.FocalY, 0, 0,
		p.PrincipalX, p.PrincipalY, 1, 0,
		0, 0, 0, 1,
	})

	// A failed inversion leaves whatever the solver produced; garbage
	// parameters give a garbage image by contract.
	inv := mat.NewDense(4, 4, nil)
	_ = inv.Inverse(affine)
	return inv
}
