package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, Level("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, Level(" warn "))
	assert.Equal(t, logrus.PanicLevel, Level("silent"))
	assert.Equal(t, logrus.InfoLevel, Level("bogus"))
	assert.Equal(t, logrus.InfoLevel, Level(""))
}

func TestNewWithOutput_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "prod", "info")
	l.WithField("desk", 2).Info("assigned")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "assigned", entry["msg"])
	assert.Equal(t, float64(2), entry["desk"])
}

func TestNewWithOutput_DevIsTextAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "dev", "warn")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
}
