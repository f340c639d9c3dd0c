package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
region: EU868
seed: 42
max_sim_time_seconds: 86400
adr_server: true
adr_method: avg
channel_assign_policy: round-robin
channels:
  - freq_hz: 868100000
    bw_hz: 125000
    band: g
  - freq_hz: 868300000
    bw_hz: 125000
    band: g
gateways:
  - x: 0
    y: 0
node_groups:
  - count: 100
    class: A
    traffic: random
    interval_seconds: 1000
    adr: false
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioYAML(t *testing.T) {
	path := writeTemp(t, "scenario.yaml", sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EU868", s.Region)
	assert.Len(t, s.Channels, 2)
	assert.Equal(t, 100, s.NodeGroups[0].Count)
}

func TestLoadScenarioRejectsEmptyChannels(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "region: EU868\nseed: 1\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadScenarioRejectsUnknownADRMethod(t *testing.T) {
	bad := strings.Replace(sampleYAML, "adr_method: avg", "adr_method: bogus", 1)
	path := writeTemp(t, "bad2.yaml", bad)
	_, err := Load(path)
	require.Error(t, err)
}

const sampleIni = `
[General]
**.node[0].mobility.initialX = 100
**.node[0].mobility.initialY = 200
**.node[1].mobility.initialX = 300
**.node[1].mobility.initialY = 400
**.gateway[0].mobility.initialX = 0
**.gateway[0].mobility.initialY = 0
**.node[0].appl.timeToNextPacket = 1000s
`

func TestLoadIniExtractsPositionsAndIntervals(t *testing.T) {
	path := writeTemp(t, "scenario.ini", sampleIni)
	s, err := LoadIni(path)
	require.NoError(t, err)
	require.Len(t, s.Nodes, 2)
	require.Len(t, s.Gateways, 1)
	assert.Equal(t, 1000.0, s.IntervalFor("node[0]"))
	assert.Equal(t, DefaultTimeToNextPacket, s.IntervalFor("node[1]"))
}

func TestRegionByNameFallsBackToEU868(t *testing.T) {
	r := RegionByName("does-not-exist")
	assert.Equal(t, "EU868", r.Name)
}

func TestScenarioFromIniCarriesPositionsAndIntervals(t *testing.T) {
	path := writeTemp(t, "scenario.ini", sampleIni)
	ini, err := LoadIni(path)
	require.NoError(t, err)

	s := ScenarioFromIni(ini)
	require.NoError(t, s.Validate())

	assert.Equal(t, "EU868", s.Region)
	assert.Len(t, s.Gateways, 1)
	require.Len(t, s.NodeGroups, 2)
	for _, g := range s.NodeGroups {
		require.NotNil(t, g.Position)
		assert.Equal(t, 1, g.Count)
	}
}
