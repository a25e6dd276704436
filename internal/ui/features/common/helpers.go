package common

import (
	"strconv"

	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Ftoa formats a coordinate with at most one decimal.
func Ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// Opacity formats an opacity with two decimals.
func Opacity(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatValue renders a node or link total under the metric.
func FormatValue(metric core.MetricType, count int, amount float64) string {
	if metric == core.MetricAmount {
		return selection.CompactAmount(amount)
	}
	return strconv.Itoa(count)
}

// MetricLabel is the human-readable metric name.
func MetricLabel(metric core.MetricType) string {
	if metric == core.MetricAmount {
		return "Amount"
	}
	return "Count"
}
