package redshift

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func fillRamp(t *testing.T, size int, p Profile) (r, g, b []uint16) {
	t.Helper()
	r = make([]uint16, size)
	g = make([]uint16, size)
	b = make([]uint16, size)
	if err := FillColorRamp(r, g, b, p); err != nil {
		t.Fatalf("fill ramp: %v", err)
	}
	return r, g, b
}

func TestFillColorRampMonotonic(t *testing.T) {
	for _, temperature := range []int{1000, 2700, 4000, 6500, 8000, 10000} {
		for _, size := range []int{2, 3, 256, 1024} {
			r, g, b := fillRamp(t, size, TemperatureProfile(temperature))
			for channel, ramp := range map[string][]uint16{"r": r, "g": g, "b": b} {
				for i := 1; i < len(ramp); i++ {
					if ramp[i] < ramp[i-1] {
						t.Fatalf("%dK size %d: %s[%d] = %d < %s[%d] = %d", temperature, size, channel, i, ramp[i], channel, i-1, ramp[i-1])
					}
				}
			}
		}
	}
}

func TestFillColorRampTemperatureRange(t *testing.T) {
	for _, tc := range []struct {
		temperature int
		ok          bool
	}{
		{999, false},
		{1000, true},
		{6500, true},
		{10000, true},
		{10001, false},
	} {
		r := make([]uint16, 256)
		g := make([]uint16, 256)
		b := make([]uint16, 256)
		err := FillColorRamp(r, g, b, TemperatureProfile(tc.temperature))
		if tc.ok && err != nil {
			t.Errorf("%dK: unexpected error %v", tc.temperature, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTemperature) {
			t.Errorf("%dK: expected ErrInvalidTemperature, got %v", tc.temperature, err)
		}
	}
}

func TestFillColorRampNeutral(t *testing.T) {
	// 6500K is exactly the white entry of the black body table, so a neutral
	// profile must produce the identity ramp on all channels.
	r, g, b := fillRamp(t, 256, TemperatureProfile(6500))
	for i := range r {
		want := uint16(math.Round(float64(i) / 255 * math.MaxUint16))
		if r[i] != want || g[i] != want || b[i] != want {
			t.Fatalf("sample %d: got (%d, %d, %d), want %d", i, r[i], g[i], b[i], want)
		}
	}
}

func TestFillColorRampWarm(t *testing.T) {
	r, g, b := fillRamp(t, 256, TemperatureProfile(1000))
	if r[255] != math.MaxUint16 {
		t.Errorf("red end = %d, want %d", r[255], math.MaxUint16)
	}
	if want := uint16(math.Round(0.18172716 * math.MaxUint16)); g[255] != want {
		t.Errorf("green end = %d, want %d", g[255], want)
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("blue[%d] = %d, want 0", i, v)
		}
	}
}

func TestFillColorRampInverted(t *testing.T) {
	p := TemperatureProfile(4500)
	r, g, b := fillRamp(t, 128, p)
	p.Inverted = true
	ri, gi, bi := fillRamp(t, 128, p)
	for i := range r {
		if ri[i] != math.MaxUint16-r[i] || gi[i] != math.MaxUint16-g[i] || bi[i] != math.MaxUint16-b[i] {
			t.Fatalf("sample %d: inverted (%d, %d, %d) does not mirror (%d, %d, %d)", i, ri[i], gi[i], bi[i], r[i], g[i], b[i])
		}
	}
}

func TestFillColorRampBrightness(t *testing.T) {
	p := TemperatureProfile(6500)
	p.Brightness = 0.5
	r, _, _ := fillRamp(t, 256, p)
	if want := uint16(math.Round(0.5 * math.MaxUint16)); r[255] != want {
		t.Errorf("red end = %d, want %d", r[255], want)
	}
}

func TestFillColorRampGamma(t *testing.T) {
	p := TemperatureProfile(6500)
	p.Gamma = 2.2
	r, _, _ := fillRamp(t, 3, p)
	if want := uint16(math.Round(math.Pow(0.5, 1/2.2) * math.MaxUint16)); r[1] != want {
		t.Errorf("midpoint = %d, want %d", r[1], want)
	}
	if r[0] != 0 || r[2] != math.MaxUint16 {
		t.Errorf("endpoints = %d, %d, want 0, %d", r[0], r[2], math.MaxUint16)
	}
}

func TestFillColorRampDeterministic(t *testing.T) {
	p := Profile{Temperature: 3400, Gamma: 0.9, Brightness: 0.8}
	r1, g1, b1 := fillRamp(t, 512, p)
	r2, g2, b2 := fillRamp(t, 512, p)
	if !slices.Equal(r1, r2) || !slices.Equal(g1, g2) || !slices.Equal(b1, b2) {
		t.Error("identical profiles produced different ramps")
	}
}

func TestFillColorRampSizeValidation(t *testing.T) {
	if err := FillColorRamp(make([]uint16, 1), make([]uint16, 1), make([]uint16, 1), TemperatureProfile(6500)); err == nil {
		t.Error("expected error for size 1")
	}
	if err := FillColorRamp(make([]uint16, 4), make([]uint16, 4), make([]uint16, 8), TemperatureProfile(6500)); err == nil {
		t.Error("expected error for mismatched sizes")
	}
}
