// Package statsd wraps the handful of datadog statsd calls the turn server makes, so the rest of
// the module does not import the datadog client directly.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const namespace = "freeorion."

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitReplayStats counts the outcome of replaying one empire's orders.
func EmitReplayStats(executed, skipped, failed int, tags []string) {
	counts := []struct {
		name  string
		value int
	}{
		{"orders.executed", executed},
		{"orders.skipped", skipped},
		{"orders.failed", failed},
	}
	for _, c := range counts {
		if err := Client().Count(c.name, int64(c.value), tags, 1); err != nil {
			log.Logger.Warn().Err(err).Str("metric", c.name).Msg("failed to emit replay stat")
		}
	}
}

// EmitTurnStat records how long processing a turn took.
func EmitTurnStat(start time.Time, tags []string) {
	if err := Client().Timing("turn.process", time.Since(start), tags, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit turn stat: %v", err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace(namespace),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrapf(err, "failed to create statsd client for %s", address)
	}
	client = newClient
	return nil
}
