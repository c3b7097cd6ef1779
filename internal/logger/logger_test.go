package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWhenNotDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)

	Component("correlation").WithField("incident_id", 7).Info("incident created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "incident created", entry["msg"])
	assert.Equal(t, "correlation", entry["component"])
	assert.Equal(t, float64(7), entry["incident_id"])
	assert.Equal(t, logrus.InfoLevel, _log.GetLevel())
}

func TestInit_DebugUsesTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(true, buf)

	WithFields(logrus.Fields{"ip": "10.0.0.1"}).Debug("window selected")

	assert.Contains(t, buf.String(), "window selected")
	assert.Contains(t, buf.String(), "ip=10.0.0.1")
	assert.Equal(t, logrus.DebugLevel, _log.GetLevel())
}
