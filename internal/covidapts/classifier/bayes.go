// Package classifier implements a Gaussian naive Bayes classifier over small
// numeric feature tables. A Model is immutable once trained, so it is safe to
// build one per request and share nothing between requests.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNoSamples       = errors.New("no training samples")
	ErrFeatureMismatch = errors.New("feature count mismatch")
)

// varianceFloor keeps single-sample and constant features from producing a
// zero variance.
const varianceFloor = 1e-9

// Sample is one labelled training row.
type Sample struct {
	Label    string
	Features []float64
}

type classStats struct {
	label    string
	logPrior float64
	features []distuv.Normal
}

// Model is a trained classifier.
type Model struct {
	features int
	classes  []classStats
}

// Train fits per-class feature means and variances.
func Train(samples []Sample) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	width := len(samples[0].Features)
	if width == 0 {
		return nil, fmt.Errorf("%w: samples have no features", ErrFeatureMismatch)
	}

	byLabel := make(map[string][]Sample)
	for i, s := range samples {
		if len(s.Features) != width {
			return nil, fmt.Errorf("%w: sample %d has %d features, want %d",
				ErrFeatureMismatch, i, len(s.Features), width)
		}
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	// Scale the floor by the largest feature variance so features measured in
	// large units do not swamp the smoothing.
	smoothing := varianceFloor * math.Max(1, maxVariance(samples, width))

	m := &Model{features: width}
	for _, label := range labels {
		rows := byLabel[label]
		dists := make([]distuv.Normal, width)
		for j := range dists {
			mean, variance := stat.PopMeanVariance(column(rows, j), nil)
			dists[j] = distuv.Normal{Mu: mean, Sigma: math.Sqrt(variance + smoothing)}
		}
		m.classes = append(m.classes, classStats{
			label:    label,
			logPrior: math.Log(float64(len(rows)) / float64(len(samples))),
			features: dists,
		})
	}
	return m, nil
}

// Labels returns the classes the model knows, sorted.
func (m *Model) Labels() []string {
	labels := make([]string, len(m.classes))
	for i, c := range m.classes {
		labels[i] = c.label
	}
	return labels
}

// Classify returns the label with the highest posterior for features.
// Ties go to the label that sorts first.
func (m *Model) Classify(features []float64) (string, error) {
	if len(features) != m.features {
		return "", fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(features), m.features)
	}

	best := ""
	bestScore := math.Inf(-1)
	for _, c := range m.classes {
		score := c.logPrior
		for j, x := range features {
			score += c.features[j].LogProb(x)
		}
		if best == "" || score > bestScore {
			best = c.label
			bestScore = score
		}
	}
	return best, nil
}

func column(rows []Sample, j int) []float64 {
	col := make([]float64, len(rows))
	for i, r := range rows {
		col[i] = r.Features[j]
	}
	return col
}

// maxVariance is the largest population variance of any feature over all samples.
func maxVariance(samples []Sample, width int) float64 {
	highest := 0.0
	for j := 0; j < width; j++ {
		_, variance := stat.PopMeanVariance(column(samples, j), nil)
		highest = math.Max(highest, variance)
	}
	return highest
}
