package analysis

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/marketradar/pkg/models"
)

// ErrInsufficientData is returned when a series is too short to analyse.
var ErrInsufficientData = errors.New("at least 2 data points are required")

// Volatility summarizes the price spread of a series.
type Volatility struct {
	Points         int     `json:"data_points"`
	Min            float64 `json:"min_price"`
	Max            float64 `json:"max_price"`
	Avg            float64 `json:"avg_price"`
	Current        float64 `json:"current_price"`
	Range          float64 `json:"price_range"`
	RangePct       float64 `json:"volatility_percent"`
	TotalChangePct float64 `json:"total_change_percent"`
	StdDevReturns  float64 `json:"stddev_returns_percent"`
}

// ComputeVolatility analyses an ascending series. RangePct is the min-max
// range relative to the mean; TotalChangePct compares the last point to the
// first.
func ComputeVolatility(points []models.Point) (Volatility, error) {
	if len(points) < 2 {
		return Volatility{}, ErrInsufficientData
	}

	v := Volatility{
		Points:  len(points),
		Min:     points[0].Price,
		Max:     points[0].Price,
		Current: points[len(points)-1].Price,
	}
	sum := decimal.Zero
	for _, p := range points {
		v.Min = math.Min(v.Min, p.Price)
		v.Max = math.Max(v.Max, p.Price)
		sum = sum.Add(decimal.NewFromFloat(p.Price))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(points))))
	rng := decimal.NewFromFloat(v.Max).Sub(decimal.NewFromFloat(v.Min))

	v.Avg = avg.InexactFloat64()
	v.Range = rng.InexactFloat64()
	if avg.IsPositive() {
		v.RangePct = rng.Div(avg).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	if first := points[0].Price; first != 0 {
		v.TotalChangePct = (v.Current - first) / first * 100
	}
	v.StdDevReturns = stddevReturns(points)
	return v, nil
}

// stddevReturns is the population standard deviation of step-to-step
// percentage returns.
func stddevReturns(points []models.Point) float64 {
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		if prev := points[i-1].Price; prev != 0 {
			returns = append(returns, (points[i].Price-prev)/prev*100)
		}
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	return math.Sqrt(variance / float64(len(returns)))
}
