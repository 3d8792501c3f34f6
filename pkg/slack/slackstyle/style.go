package slackstyle

const (
	Green   = "#228B22"
	Red     = "#DC143C"
	Neutral = "#f0f0f0"
)

// TrendIcon returns the chart emoji of the slope sign
func TrendIcon(slope float64) string {
	if slope < 0 {
		return ":chart_with_downwards_trend:"
	} else if slope > 0 {
		return ":chart_with_upwards_trend:"
	}
	return ""
}
