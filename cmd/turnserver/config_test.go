package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeorion/orders/pkg/testutils"
	"github.com/freeorion/orders/pkg/universe"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("FREEORION_GAME_ID", "g42")
	t.Setenv("FREEORION_EMPIRES", "1,2")
	t.Setenv("FREEORION_GALAXY_FILE", "/data/galaxy.json")
	t.Setenv("FREEORION_TURN_TIMEOUT", "90s")
	t.Setenv("STATSD_TAGS", "env:test,region:eu")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "g42", cfg.GameID)
	assert.Equal(t, []int{1, 2}, cfg.Empires)
	assert.Equal(t, "/data/galaxy.json", cfg.GalaxyFile)
	assert.Equal(t, 90*time.Second, cfg.TurnTimeout)
	assert.Empty(t, cfg.StatsdAddress)
	assert.Equal(t, []string{"env:test", "region:eu"}, cfg.StatsdTags)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	valid := func() Config {
		return Config{GameID: "g1", GalaxyFile: "galaxy.json"}
	}
	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr bool
	}{
		{name: "valid", mod: func(*Config) {}},
		{name: "empty game", mod: func(c *Config) { c.GameID = "" }, wantErr: true},
		{name: "dotted game", mod: func(c *Config) { c.GameID = "a.b" }, wantErr: true},
		{name: "wildcard game", mod: func(c *Config) { c.GameID = "*" }, wantErr: true},
		{name: "no galaxy", mod: func(c *Config) { c.GalaxyFile = "" }, wantErr: true},
		{name: "negative timeout", mod: func(c *Config) { c.TurnTimeout = -time.Second }, wantErr: true},
		{name: "negative empire", mod: func(c *Config) { c.Empires = []int{1, -1} }, wantErr: true},
		{name: "empire without id block", mod: func(c *Config) { c.Empires = []int{1, 3000} }, wantErr: true},
		{name: "last empire with id block", mod: func(c *Config) { c.Empires = []int{int(universe.MaxEmpireID)} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tc.mod(&cfg)
			if tc.wantErr {
				require.Error(t, cfg.validate())
			} else {
				require.NoError(t, cfg.validate())
			}
		})
	}
}

func TestEmpireIDs(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)

	cfg := Config{}
	ids, err := cfg.empireIDs(gs)
	require.NoError(t, err)
	assert.Equal(t, []universe.EmpireID{testutils.Empire1, testutils.Empire2}, ids)

	cfg.Empires = []int{int(testutils.Empire2)}
	ids, err = cfg.empireIDs(gs)
	require.NoError(t, err)
	assert.Equal(t, []universe.EmpireID{testutils.Empire2}, ids)

	cfg.Empires = []int{7}
	_, err = cfg.empireIDs(gs)
	require.ErrorIs(t, err, universe.ErrEmpireNotFound)
}

func TestLoadGalaxy(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	path := filepath.Join(t.TempDir(), "galaxy.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gs.Encode(f))
	require.NoError(t, f.Close())

	loaded, err := loadGalaxy(path)
	require.NoError(t, err)
	assert.Equal(t, gs.CurrentTurn, loaded.CurrentTurn)
	assert.Equal(t, gs.Empires.IDs(), loaded.Empires.IDs())

	_, err = loadGalaxy(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
