package volume

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the intensity distribution of a Dense volume.
type Stats struct {
	Min, Max  float64
	Mean, Std float64
	// Occupancy is the fraction of cells with non-zero intensity.
	Occupancy float64
}

func Summarize(d *Dense) Stats {
	if len(d.Cells) == 0 {
		return Stats{}
	}
	xs := make([]float64, len(d.Cells))
	occupied := 0
	for i, c := range d.Cells {
		xs[i] = float64(c)
		if c > 0 {
			occupied++
		}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Stats{
		Min:       floats.Min(xs),
		Max:       floats.Max(xs),
		Mean:      mean,
		Std:       std,
		Occupancy: float64(occupied) / float64(len(xs)),
	}
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("occupancy", s.Occupancy),
	)
}
