// Package main is the entry point for the showcore server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/castlight/showcore/internal/audioclock"
	"github.com/castlight/showcore/internal/config"
	"github.com/castlight/showcore/internal/coordinator"
	"github.com/castlight/showcore/internal/dmxdriver"
	"github.com/castlight/showcore/internal/midirouter"
	"github.com/castlight/showcore/internal/midisequencer"
	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/project"
	"github.com/castlight/showcore/internal/pubsub"
	"github.com/castlight/showcore/internal/server"
	"github.com/castlight/showcore/internal/showerr"
	"github.com/castlight/showcore/internal/video"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	printBanner(cfg)

	projectRepo, songRepo, profileRepo, err := project.NewRepositories(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to initialize data directory %q: %v", cfg.DataDir, err)
	}

	ctx := context.Background()

	proj, err := projectRepo.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load project: %v", err)
	}
	log.Printf("loaded project with %d universe(s)", len(proj.Universes))

	ps := pubsub.New()
	coord := coordinator.New()

	// Every universe gets its own MIDI input router: mapping action indices
	// are scoped to that universe's Scenes/Chasers, and the channel filter
	// and controller port are per-universe settings (spec §4.8).
	var drivers []*dmxdriver.Driver
	var controlRouter *midirouter.Router
	for _, pu := range proj.Universes {
		driver := newUniverseDriver(pu)
		if err := driver.Start(); err != nil {
			log.Printf("warning: universe %q DMX port unavailable, continuing without DMX output: %v", pu.Universe.Name, err)
		}
		drivers = append(drivers, driver)
		coord.AddUniverse(pu.Universe, driver)

		pu := pu
		r := midirouter.New(pu.MidiFilterChannel, func(action model.Action) {
			dispatchAction(coord, pu, action)
		})
		r.SetMappings(dereferenceMappings(pu.Mappings))
		if controlRouter == nil {
			controlRouter = r // the MIDI sequencer's internal-port events route to the first universe's router
		}
	}

	if len(proj.Universes) == 0 {
		log.Println("warning: no universes configured, running server with an empty project")
	}
	_ = profileRepo // catalog is only consulted indirectly, via projectRepo, while resolving instances' fixture models

	if song := loadFirstSong(ctx, songRepo); song != nil {
		wireSong(coord, controlRouter, ps, song)
	}

	srv := server.New(server.Config{
		Addr:       ":" + cfg.Port,
		CORSOrigin: cfg.CORSOrigin,
		DevMode:    cfg.IsDevelopment(),
	}, coord, ps, proj)
	srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	coord.Stop()
	for _, d := range drivers {
		d.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// dispatchAction executes a matched MIDI mapping's action against a
// universe (spec §4.8): activate a scene, start a chaser, or stop
// everything running on that universe.
func dispatchAction(coord *coordinator.Coordinator, pu *model.ProjectUniverse, action model.Action) {
	switch action.Kind {
	case model.ActionScene:
		if action.Index < 0 || action.Index >= len(pu.Scenes) {
			log.Printf("midi mapping ignored: %v: scene %d on universe %q", showerr.ErrActionOutOfRange, action.Index, pu.Universe.Name)
			return
		}
		coord.AddActiveScene(pu.Universe.ID, pu.Scenes[action.Index], 255)
	case model.ActionChaser:
		if action.Index < 0 || action.Index >= len(pu.Chasers) {
			log.Printf("midi mapping ignored: %v: chaser %d on universe %q", showerr.ErrActionOutOfRange, action.Index, pu.Universe.Name)
			return
		}
		coord.StartChaser(pu.Universe.ID, pu.Chasers[action.Index])
	case model.ActionStop:
		coord.StopAll(pu.Universe.ID)
	}
}

// loadFirstSong loads the first available song from the catalog, if any.
// showcore currently runs one song at a time; multi-song set lists are left
// to the control client (spec §9: not this layer's concern).
func loadFirstSong(ctx context.Context, songRepo *project.FileSongRepository) *model.Song {
	names, err := songRepo.List(ctx)
	if err != nil || len(names) == 0 {
		return nil
	}
	song, err := songRepo.Load(ctx, names[0])
	if err != nil {
		log.Printf("warning: failed to load song %q: %v", names[0], err)
		return nil
	}
	return song
}

// wireSong builds the audio clock, MIDI sequencer, and video seek-slave for
// a loaded song and hands them to the coordinator (spec §4.11).
func wireSong(coord *coordinator.Coordinator, router *midirouter.Router, ps *pubsub.PubSub, song *model.Song) {
	clock, err := audioclock.New(song, audioclock.OpenWavFile)
	if err != nil {
		log.Printf("warning: audio clock unavailable for %q, continuing without audio: %v", song.Name, err)
		clock, _ = audioclock.New(&model.Song{Name: song.Name}, audioclock.OpenWavFile)
	} else if err := clock.Open(); err != nil {
		log.Printf("warning: audio output unavailable for %q: %v", song.Name, err)
	}

	sequencer := midisequencer.New(router, func(ev midisequencer.MonitorEvent) {
		ps.Publish(pubsub.TopicMidiMonitor, "", ev)
	})

	slave := &video.NoopSlave{}

	coord.LoadSong(song, clock, sequencer, slave, func(index int) {
		ps.Publish(pubsub.TopicLyricsIndex, "", index)
	})
}

// newUniverseDriver builds a Driver for a universe, using a real serial
// transmitter if a DMX port name was configured, or falling back to a
// simulator otherwise (spec §7: PortUnavailable never halts the show).
func newUniverseDriver(pu *model.ProjectUniverse) *dmxdriver.Driver {
	if pu.DMXPortName == "" {
		return dmxdriver.NewDriver(dmxdriver.Config{PortName: "(simulated)"}, dmxdriver.NewSimTransmitter())
	}
	return dmxdriver.NewDriver(
		dmxdriver.Config{PortName: pu.DMXPortName},
		dmxdriver.NewSerialTransmitter(pu.DMXPortName),
	)
}

func dereferenceMappings(mappings []*model.MidiMapping) []model.MidiMapping {
	out := make([]model.MidiMapping, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, *m)
	}
	return out
}

func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  showcore")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Port:        %s\n", cfg.Port)
	fmt.Printf("  Data dir:    %s\n", cfg.DataDir)
	fmt.Println("============================================")
}
