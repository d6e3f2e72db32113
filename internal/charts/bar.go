// Package charts renders statistics images served to web and bot clients.
package charts

import (
	"bytes"
	"errors"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/edupulse/quizbot/internal/content"
)

var ErrNoData = errors.New("no attempts to chart")

const maxLabelLen = 18

// TopicsPNG renders a bar chart of solved-question counts per topic.
func TopicsPNG(counts []content.TopicCount) ([]byte, error) {
	if len(counts) == 0 {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		label := c.Topic
		if len([]rune(label)) > maxLabelLen {
			label = string([]rune(label)[:maxLabelLen-1]) + "…"
		}
		bars = append(bars, chart.Value{Value: float64(c.Solved), Label: label})
	}
	bc := chart.BarChart{
		Title:    "Solved by topic",
		Height:   400,
		BarWidth: 48,
		Bars:     bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
