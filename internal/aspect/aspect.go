package aspect

import "math"

// Key identifies one of the supported capture aspect ratios.
type Key string

const (
	Key9x16 Key = "9:16"
	Key3x4  Key = "3:4"
	Key1x1  Key = "1:1"
	Key4x3  Key = "4:3"
	Key4x5  Key = "4:5"
	Key16x9 Key = "16:9"
)

// DefaultKey is used whenever a ratio key is missing or unrecognized.
const DefaultKey = Key3x4

// canvasScale converts a ratio pair into the fixed encode target so captures
// come out at the same size regardless of the source camera resolution.
const canvasScale = 1000

// Keys returns the supported ratio keys in display order.
func Keys() []Key {
	return []Key{Key9x16, Key3x4, Key1x1, Key4x3, Key4x5, Key16x9}
}

// Parse maps a ratio label to a Key, falling back to DefaultKey for anything
// it does not recognize. It never fails.
func Parse(s string) Key {
	switch Key(s) {
	case Key9x16, Key3x4, Key1x1, Key4x3, Key4x5, Key16x9:
		return Key(s)
	default:
		return DefaultKey
	}
}

// Size returns the integer width/height pair behind a ratio key. Unknown keys
// resolve to the 3:4 default.
func Size(k Key) (width, height int) {
	switch k {
	case Key9x16:
		return 9, 16
	case Key4x3:
		return 4, 3
	case Key1x1:
		return 1, 1
	case Key4x5:
		return 4, 5
	case Key16x9:
		return 16, 9
	default:
		return 3, 4
	}
}

// Ratio returns width/height for a ratio key.
func Ratio(k Key) float64 {
	w, h := Size(k)
	return float64(w) / float64(h)
}

// CanvasSize returns the pixel dimensions of the encode target for a key.
// The target is ratio-correct by construction.
func CanvasSize(k Key) (width, height int) {
	w, h := Size(k)
	return w * canvasScale, h * canvasScale
}

// Rect is a crop rectangle in source pixel coordinates.
type Rect struct {
	SX      int
	SY      int
	SWidth  int
	SHeight int
}

// CenterCrop computes the largest centered rectangle of a sourceW x sourceH
// frame that matches targetRatio. A source wider than the target loses equal
// amounts from both sides; a taller source loses equal amounts from top and
// bottom. Callers must not pass zero-area sources.
func CenterCrop(sourceW, sourceH int, targetRatio float64) Rect {
	r := Rect{SWidth: sourceW, SHeight: sourceH}
	sourceRatio := float64(sourceW) / float64(sourceH)
	if sourceRatio > targetRatio {
		r.SWidth = int(math.Floor(float64(sourceH) * targetRatio))
		r.SX = (sourceW - r.SWidth) / 2
	} else if sourceRatio < targetRatio {
		r.SHeight = int(math.Floor(float64(sourceW) / targetRatio))
		r.SY = (sourceH - r.SHeight) / 2
	}
	return r
}
