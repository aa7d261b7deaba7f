package oxml

import "math"

// EMU is an English Metric Unit, the native length unit of DrawingML
// coordinates. Values are stored exactly as integers so repeated unit
// conversions cannot drift.
type EMU int64

// Conversion factors.
const (
	EMUPerPoint      EMU = 12700
	EMUPerInch       EMU = 914400
	EMUPerCentimeter EMU = 360000
)

// Points returns the length in typographic points.
func (e EMU) Points() float64 {
	return float64(e) / float64(EMUPerPoint)
}

// Inches returns the length in inches.
func (e EMU) Inches() float64 {
	return float64(e) / float64(EMUPerInch)
}

// Centimeters returns the length in centimeters.
func (e EMU) Centimeters() float64 {
	return float64(e) / float64(EMUPerCentimeter)
}

// FromPoints converts points to the nearest EMU.
func FromPoints(pt float64) EMU {
	return EMU(math.Round(pt * float64(EMUPerPoint)))
}

// FromInches converts inches to the nearest EMU.
func FromInches(in float64) EMU {
	return EMU(math.Round(in * float64(EMUPerInch)))
}

// Centipoints is a font size in hundredths of a point, as carried by the
// sz attribute on run properties.
type Centipoints int

// Points returns the size in points.
func (c Centipoints) Points() float64 {
	return float64(c) / 100
}

// CentipointsFromPoints converts points to the nearest centipoint.
func CentipointsFromPoints(pt float64) Centipoints {
	return Centipoints(math.Round(pt * 100))
}
