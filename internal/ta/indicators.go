package ta

import (
	"math"
	"time"

	"glowing-telegram/internal/domain"
)

func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSISeries computes Wilder-smoothed RSI. Entries before the first full
// period are NaN.
func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func MACDSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMASeries(macdLine, signal)
	return macdLine, signalLine
}

// Resample4H aggregates 1H candles (oldest first) into right-closed 4H
// candles aligned to 4-hour UTC boundaries. Partial trailing buckets are
// dropped so only fully closed candles come out.
func Resample4H(h1 []*domain.Candle) []*domain.Candle {
	if len(h1) == 0 {
		return nil
	}

	const bucket = 4 * time.Hour
	var out []*domain.Candle
	var cur *domain.Candle
	var curEnd time.Time
	count := 0

	flush := func() {
		if cur != nil && count == 4 {
			out = append(out, cur)
		}
		cur = nil
		count = 0
	}

	for _, c := range h1 {
		end := c.CloseTime.UTC().Truncate(bucket)
		if !end.Equal(c.CloseTime.UTC()) {
			end = end.Add(bucket)
		}
		if cur == nil || !end.Equal(curEnd) {
			flush()
			curEnd = end
			cur = &domain.Candle{
				Symbol:    c.Symbol,
				Interval:  domain.TimeframeH4,
				CloseTime: end,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			}
			count = 1
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.CloseTime = end
		cur.Volume += c.Volume
		count++
	}
	flush()
	return out
}
