// Command turnserver collects the orders of every player of one game over NATS and replays them
// against the authoritative game state at the end of each turn.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/freeorion/orders/pkg/savegame"
	"github.com/freeorion/orders/pkg/statsd"
	"github.com/freeorion/orders/pkg/telemetry"
	"github.com/freeorion/orders/pkg/turnsync"
	"github.com/freeorion/orders/pkg/universe"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("turn server failed")
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(telemetry.Options{ServiceName: "turnserver"})
	if err != nil {
		return err
	}
	logger := tel.GetLogger("main")

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
			return err
		}
	}

	gs, err := loadGalaxy(cfg.GalaxyFile)
	if err != nil {
		return err
	}
	empires, err := cfg.empireIDs(gs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := turnsync.NewClient(turnsync.WithLogger(tel.GetLogger("nats")))
	if err != nil {
		return err
	}
	defer client.Close()

	saveCfg, err := savegame.LoadConfig()
	if err != nil {
		return err
	}
	storage, err := savegame.NewStorage(ctx, saveCfg, client.Conn)
	if err != nil {
		return err
	}

	receiver, err := turnsync.NewReceiver(client, cfg.GameID, gs.CurrentTurn, empires,
		turnsync.WithReceiverLogger(tel.GetLogger("receiver")),
		turnsync.WithReceiverTracer(tel.Tracer),
		turnsync.WithReceiverStorage(storage))
	if err != nil {
		return err
	}
	restored, err := receiver.Restore(ctx)
	if err != nil {
		return err
	}
	processor, err := turnsync.NewProcessor(gs, receiver,
		turnsync.WithStorage(storage),
		turnsync.WithProcessorLogger(tel.GetLogger("processor")),
		turnsync.WithProcessorTracer(tel.Tracer))
	if err != nil {
		return err
	}
	srv, err := turnsync.NewServer(receiver, processor, cfg.TurnTimeout, tel.GetLogger("server"))
	if err != nil {
		return err
	}

	logger.Info().
		Str("game_id", cfg.GameID).
		Int("turn", gs.CurrentTurn).
		Interface("empires", empires).
		Interface("restored", restored).
		Stringer("storage", storageType(saveCfg.StorageType)).
		Msg("turn server started")
	return srv.Run(ctx)
}

func loadGalaxy(path string) (*universe.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open galaxy file %s", path)
	}
	defer f.Close()

	gs, err := universe.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to decode galaxy file %s", path)
	}
	return gs, nil
}

func storageType(s string) savegame.StorageType {
	t, _ := savegame.ParseStorageType(s)
	return t
}
