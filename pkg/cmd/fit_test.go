package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/bandbot/pkg/analysis"
)

const samplesCSV = `elapsed,price
1,50.1
2,50.0
3,49.9
3,50.2
4,50.5
5,50.2
5,49.8
6,49.6
6,49.2
`

func TestReadSamples(t *testing.T) {
	buf, err := readSamples(strings.NewReader(samplesCSV))
	require.NoError(t, err)
	assert.Equal(t, 9, buf.Len())
	assert.True(t, buf.Full())

	lines, err := analysis.Fit(buf, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 50.390625, lines.Alpha, 1e-9)
	assert.InDelta(t, -0.11473214285713798, lines.Beta, 1e-9)

	var out bytes.Buffer
	renderFitTable(&out, buf, lines)
	assert.Contains(t, out.String(), "50.39062500")
	assert.Contains(t, out.String(), "upper")
	assert.Contains(t, out.String(), "LINE")

	// the right edge is the last elapsed time, not the sample count
	assert.Contains(t, out.String(), "AT 6")
	assert.NotContains(t, out.String(), "AT 9")
	assert.Contains(t, out.String(), "49.7022")
}

func TestReadSamples_Invalid(t *testing.T) {
	_, err := readSamples(strings.NewReader("1,50.1\nx,50.0\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = readSamples(strings.NewReader("1,50.1\n2,abc\n"))
	assert.ErrorContains(t, err, "invalid price")

	_, err = readSamples(strings.NewReader("1,50.1,3\n"))
	assert.Error(t, err)

	_, err = readSamples(strings.NewReader("elapsed,price\n"))
	assert.Error(t, err)
}
