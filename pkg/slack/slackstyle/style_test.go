package slackstyle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrendIcon(t *testing.T) {
	assert.Equal(t, ":chart_with_downwards_trend:", TrendIcon(-0.11))
	assert.Equal(t, ":chart_with_upwards_trend:", TrendIcon(0.5))
	assert.Equal(t, "", TrendIcon(0))
}
