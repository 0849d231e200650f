package sentiment

import (
	"context"
	"fmt"
)

// Label is a classifier output for one text.
type Label string

const (
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
	LabelPositive Label = "positive"
)

// Classifier maps texts to sentiment labels. Implementations call an
// external model service; the index math here never depends on how.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Label, error)
}

// Score maps a label to its numeric contribution.
func Score(l Label) (float64, error) {
	switch l {
	case LabelNegative:
		return -1, nil
	case LabelNeutral:
		return 0, nil
	case LabelPositive:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown sentiment label %q", l)
	}
}

// Index is the mean score over labels, in [-1, 1]. An empty label set is
// neutral.
func Index(labels []Label) (float64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, l := range labels {
		s, err := Score(l)
		if err != nil {
			return 0, err
		}
		sum += s
	}
	return sum / float64(len(labels)), nil
}
