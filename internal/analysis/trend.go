package analysis

import (
	"github.com/seenimoa/marketradar/pkg/models"
)

// Direction of a trend.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// flatBand is the |change %| under which a series counts as flat.
const flatBand = 0.5

// Trend describes the movement of a series over a range.
type Trend struct {
	Direction Direction `json:"direction"`
	ChangePct float64   `json:"change_percent"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	AboveSMA  bool      `json:"above_sma"`
}

// ComputeTrend derives the trend of an ascending series. The moving-average
// period is a quarter of the series length, at least 2.
func ComputeTrend(points []models.Point) (Trend, error) {
	if len(points) < 2 {
		return Trend{}, ErrInsufficientData
	}
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	t := Trend{High: prices[0], Low: prices[0], Direction: Flat}
	for _, p := range prices {
		t.High = max(t.High, p)
		t.Low = min(t.Low, p)
	}
	first, last := prices[0], prices[len(prices)-1]
	if first != 0 {
		t.ChangePct = (last - first) / first * 100
	}
	switch {
	case t.ChangePct >= flatBand:
		t.Direction = Up
	case t.ChangePct <= -flatBand:
		t.Direction = Down
	}

	period := max(len(prices)/4, 2)
	if sma := SMALatest(prices, period); sma > 0 {
		t.AboveSMA = last > sma
	}
	return t, nil
}

// SMA calculates the simple moving average for the given period. Entries
// before the first full window are zero.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}
	return result
}

// SMALatest returns the most recent SMA value, or 0.
func SMALatest(data []float64, period int) float64 {
	vals := SMA(data, period)
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}
