package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "AlphaCast/pkg/logger"
)

func TestIndex(t *testing.T) {
	tests := []struct {
		name   string
		labels []Label
		want   float64
	}{
		{name: "all positive", labels: []Label{LabelPositive, LabelPositive}, want: 1},
		{name: "all negative", labels: []Label{LabelNegative, LabelNegative}, want: -1},
		{name: "mixed", labels: []Label{LabelPositive, LabelNegative, LabelNeutral}, want: 0},
		{name: "skewed", labels: []Label{LabelPositive, LabelPositive, LabelNegative, LabelNeutral}, want: 0.25},
		{name: "empty is neutral", labels: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Index(tt.labels)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestIndexUnknownLabel(t *testing.T) {
	_, err := Index([]Label{LabelPositive, Label("bullish")})
	assert.Error(t, err)
}

type stubSource struct {
	headlines []string
	calls     int
}

func (s *stubSource) Headlines(_ context.Context, _ string) ([]string, error) {
	s.calls++
	return s.headlines, nil
}

type stubClassifier struct {
	labels []Label
}

func (s *stubClassifier) Classify(_ context.Context, texts []string) ([]Label, error) {
	return s.labels[:len(texts)], nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestServiceIndex(t *testing.T) {
	src := &stubSource{headlines: []string{"a", "b", "c"}}
	cls := &stubClassifier{labels: []Label{LabelPositive, LabelPositive, LabelNegative}}
	svc := NewService(src, cls, nil, time.Minute, testLogger(t))

	idx, err := svc.Index(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", idx.Symbol)
	assert.Equal(t, 3, idx.Samples)
	assert.InDelta(t, 1.0/3.0, idx.Index, 1e-12)
}

func TestServiceIndexNoHeadlines(t *testing.T) {
	src := &stubSource{}
	svc := NewService(src, &stubClassifier{}, nil, time.Minute, testLogger(t))

	idx, err := svc.Index(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, 0.0, idx.Index)
	assert.Equal(t, 0, idx.Samples)
}
