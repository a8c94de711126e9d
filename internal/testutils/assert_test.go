package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blescale/internal/device"
)

type recordingT struct {
	errors []string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserterDefaults(t *testing.T) {
	rt := &recordingT{}
	ta := NewTextAsserter(rt)

	opts := ta.Options()
	assert.True(t, opts.TrimSpace)
	assert.True(t, opts.IgnoreTrailingWhitespace)
	assert.False(t, opts.IgnoreEmptyLines)
	assert.False(t, opts.EnableColors)

	assert.True(t, ta.Assert("\nScale1   \nAA:BB\n", "Scale1\nAA:BB"))
	assert.Empty(t, rt.errors)
}

func TestTextAsserterReportsUnifiedDiff(t *testing.T) {
	rt := &recordingT{}
	ta := NewTextAsserter(rt)

	assert.False(t, ta.Assert("Scale1\nScale3", "Scale1\nScale2"))
	require.Len(t, rt.errors, 1)
	assert.Contains(t, rt.errors[0], "-Scale2")
	assert.Contains(t, rt.errors[0], "+Scale3")
}

func TestTextAsserterIgnoreEmptyLines(t *testing.T) {
	ta := NewTextAsserter(&recordingT{}, WithIgnoreEmptyLines(true))
	assert.Empty(t, ta.Diff("a\n\n\nb", "a\nb"))

	strict := NewTextAsserter(&recordingT{}, WithIgnoreEmptyLines(false))
	assert.NotEmpty(t, strict.Diff("a\n\n\nb", "a\nb"))
}

func TestJSONAsserterIgnoresExtraKeysByDefault(t *testing.T) {
	rt := &recordingT{}
	ja := NewJSONAsserter(rt)

	ok := ja.Assert(`{"id":"AA:BB","name":"Scale1","rssi":-40}`, `{"id":"AA:BB","name":"Scale1"}`)
	assert.True(t, ok)
	assert.Empty(t, rt.errors)

	strict := NewJSONAsserter(&recordingT{}, WithIgnoreExtraKeys(false))
	assert.NotEmpty(t, strict.Diff(`{"id":"AA:BB","rssi":-40}`, `{"id":"AA:BB"}`))
}

func TestJSONAsserterPresencePlaceholderAndArrays(t *testing.T) {
	ja := NewJSONAsserter(&recordingT{})

	actual := `[{"id":"AA:BB","rssi":-40},{"id":"CC:DD","rssi":-70}]`
	assert.Empty(t, ja.Diff(actual, `[{"id":"AA:BB","rssi":"<<PRESENCE>>"},{"id":"CC:DD"}]`))
	assert.NotEmpty(t, ja.Diff(actual, `[{"id":"CC:DD"},{"id":"AA:BB"}]`))
}

func TestJSONAsserterIgnoredFields(t *testing.T) {
	ja := NewJSONAsserter(&recordingT{}, WithIgnoreExtraKeys(false), WithIgnoredFields("rssi"))
	assert.Empty(t, ja.Diff(`{"id":"AA:BB","rssi":-40}`, `{"id":"AA:BB","rssi":-99}`))
}

func TestJSONAsserterInvalidInput(t *testing.T) {
	ja := NewJSONAsserter(&recordingT{})
	assert.Contains(t, ja.Diff(`{`, `{}`), "invalid actual JSON")
	assert.Contains(t, ja.Diff(`{}`, `{`), "invalid expected JSON")
}

func TestDeviceBuilder(t *testing.T) {
	dev := NewDeviceBuilder().
		WithAddress("AA:BB:CC:DD:EE:FF").
		WithName("Scale1").
		WithServices("181D", "0000180F-0000-1000-8000-00805F9B34FB").
		WithTxPower(4).
		Build()

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", dev.ID(), "id follows address")
	assert.Equal(t, "Scale1", dev.Name())
	assert.Equal(t, -50, dev.RSSI())
	assert.True(t, dev.IsConnectable())
	assert.Equal(t, []string{"180f", "181d"}, dev.AdvertisedServices())
	require.NotNil(t, dev.TxPower())
	assert.Equal(t, 4, *dev.TxPower())
}

func TestDeviceBuilderFromJSON(t *testing.T) {
	dev := NewDeviceBuilder().FromJSON(`{
		"id": "%s",
		"address": "AA:BB",
		"rssi": -61,
		"connectable": false
	}`, "5F0A-UUID").Build()

	assert.Equal(t, "5F0A-UUID", dev.ID())
	assert.Equal(t, "AA:BB", dev.Address())
	assert.Equal(t, "", dev.Name())
	assert.Equal(t, -61, dev.RSSI())
	assert.False(t, dev.IsConnectable())
	assert.Equal(t, "5F0A-UUID", device.DisplayName(dev))

	assert.Panics(t, func() { NewDeviceBuilder().FromJSON(`{`) })
}
