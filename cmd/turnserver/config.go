package main

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

type Config struct {
	// GameID names the NATS subjects and save records of the game. It must be a single subject
	// token.
	GameID string `env:"FREEORION_GAME_ID"`

	// Empires taking part in the turn. Empty means every empire in the galaxy file.
	Empires []int `env:"FREEORION_EMPIRES" envSeparator:","`

	// GalaxyFile is the JSON game state the server starts from.
	GalaxyFile string `env:"FREEORION_GALAXY_FILE"`

	// TurnTimeout processes a turn even if some empires have not submitted. Zero waits forever.
	TurnTimeout time.Duration `env:"FREEORION_TURN_TIMEOUT" envDefault:"0s"`

	StatsdAddress string   `env:"STATSD_ADDRESS"`
	StatsdTags    []string `env:"STATSD_TAGS" envSeparator:","`
}

// loadConfig loads the configuration from environment variables.
func loadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse turn server config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate turn server config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.GameID == "" {
		return eris.New("game id cannot be empty")
	}
	if strings.ContainsAny(cfg.GameID, ".*> \t") {
		return eris.Errorf("game id %q must be a single NATS subject token", cfg.GameID)
	}
	if cfg.GalaxyFile == "" {
		return eris.New("galaxy file cannot be empty")
	}
	if cfg.TurnTimeout < 0 {
		return eris.New("turn timeout cannot be negative")
	}
	for _, id := range cfg.Empires {
		if id < 0 || id > int(universe.MaxEmpireID) {
			return eris.Errorf("invalid empire id %d (must be 0..%d)", id, universe.MaxEmpireID)
		}
	}
	return nil
}

// empireIDs resolves the participating empires against the loaded game.
func (cfg *Config) empireIDs(gs *universe.Context) ([]universe.EmpireID, error) {
	if len(cfg.Empires) == 0 {
		return gs.Empires.IDs(), nil
	}
	ids := make([]universe.EmpireID, 0, len(cfg.Empires))
	for _, id := range cfg.Empires {
		empire := universe.EmpireID(id) //nolint:gosec // validated
		if _, err := gs.Empire(empire); err != nil {
			return nil, eris.Wrapf(err, "configured empire %d", id)
		}
		ids = append(ids, empire)
	}
	return ids, nil
}
