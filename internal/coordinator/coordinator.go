// Package coordinator is the single orchestration point for a show (spec
// §4.11, C11): it fans out transport commands (play/pause/stop/seek) to the
// audio clock, MIDI sequencer, and video seek-slave, keeps every universe's
// layering pipeline and chaser runners wired to its DMX driver, and
// debounces master-dimmer changes before they reach the pipeline.
package coordinator

import (
	"strconv"
	"sync"
	"time"

	"github.com/castlight/showcore/internal/audioclock"
	"github.com/castlight/showcore/internal/chaser"
	"github.com/castlight/showcore/internal/dmxdriver"
	"github.com/castlight/showcore/internal/dmxframe"
	"github.com/castlight/showcore/internal/layering"
	"github.com/castlight/showcore/internal/lyrics"
	"github.com/castlight/showcore/internal/midisequencer"
	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/video"
)

// masterDimmerDebounce coalesces rapid fader input before it reaches the
// layering pipeline (spec §4.11: 20ms window).
const masterDimmerDebounce = 20 * time.Millisecond

// universeRuntime bundles one universe's runtime state: its composition
// pipeline, DMX output driver, and any chasers currently running on it.
type universeRuntime struct {
	mu         sync.Mutex
	pipeline   *layering.Pipeline
	programmer *dmxframe.UniverseFrame // manual fader layer (spec §4.3 layer 1)
	driver     *dmxdriver.Driver
	chasers    map[string]*chaser.Runner // keyed by chaser ID

	pendingDimmer     uint8
	dimmerDebounce    *time.Timer
	dimmerDebounceSet bool
}

// Coordinator owns every universe's runtime plus the currently loaded song's
// transport (audio clock, MIDI sequencer, lyrics scheduler, video slave).
type Coordinator struct {
	mu sync.RWMutex

	universes map[string]*universeRuntime

	clock     *audioclock.Clock
	sequencer *midisequencer.Sequencer
	lyricsSch *lyrics.Scheduler
	videoSlave video.SeekSlave
	videoStop  chan struct{}

	song *model.Song
}

// New builds an empty Coordinator. Call AddUniverse for each universe before
// driving playback. MIDI input routing (C9) is wired independently, outside
// the Coordinator: each universe's Router dispatches matched actions by
// calling back into the Coordinator's own methods (AddActiveScene,
// StartChaser, StopAll), the way the caller wires any other trigger source.
func New() *Coordinator {
	return &Coordinator{
		universes: make(map[string]*universeRuntime),
	}
}

// AddUniverse registers a universe's layering pipeline, programmer (manual
// fader) state, and DMX driver with the coordinator, keyed by the universe's
// project ID. The pipeline's Default layer is seeded from the programmer's
// initial snapshot (channel defaults, spec §4.3 layer 1).
func (c *Coordinator) AddUniverse(universe *model.Universe, driver *dmxdriver.Driver) {
	c.mu.Lock()
	defer c.mu.Unlock()

	programmer := dmxframe.New(universe)
	pipeline := layering.New()
	pipeline.SetDefaultFrame(programmer.SnapshotFrame())

	u := &universeRuntime{
		pipeline:   pipeline,
		programmer: programmer,
		driver:     driver,
		chasers:    make(map[string]*chaser.Runner),
	}
	c.universes[universe.ID] = u
	c.pushFrame(u)
}

// Pipeline returns a universe's layering pipeline for read access (e.g. UI
// fader readback), or nil if the universe is not registered.
func (c *Coordinator) Pipeline(universeID string) *layering.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.universes[universeID]
	if !ok {
		return nil
	}
	return u.pipeline
}

// AddActiveScene adds a scene to a universe's scene layer and pushes the
// recomposed output to its DMX driver (spec §4.3).
func (c *Coordinator) AddActiveScene(universeID string, scene *model.Scene, master uint8) {
	u := c.universe(universeID)
	if u == nil {
		return
	}
	u.pipeline.AddActiveScene(&layering.ActiveScene{ID: scene.ID, Values: scene.Values, Master: master})
	c.pushFrame(u)
}

// RemoveActiveScene removes a scene from a universe's scene layer.
func (c *Coordinator) RemoveActiveScene(universeID, sceneID string) {
	u := c.universe(universeID)
	if u == nil {
		return
	}
	u.pipeline.RemoveActiveScene(sceneID)
	c.pushFrame(u)
}

// SaveActiveScenes captures a universe's current composed output (every
// active scene, pre-master-dimmer) into a new scene, keyed by absolute DMX
// address (spec §4.11: "save as new scene" snapshots the live look).
func (c *Coordinator) SaveActiveScenes(universeID, newSceneID, newSceneName string) *model.Scene {
	u := c.universe(universeID)
	if u == nil {
		return nil
	}
	composed := u.pipeline.Composed()
	scene := model.NewScene(newSceneID, newSceneName)
	for i, v := range composed {
		if v != 0 {
			scene.Values[i+1] = v
		}
	}
	return scene
}

// StartChaser starts (or restarts) a chaser on a universe, wiring its output
// to the universe's chaser override layer (spec §4.2, §4.3).
func (c *Coordinator) StartChaser(universeID string, ch *model.Chaser) {
	u := c.universe(universeID)
	if u == nil {
		return
	}

	u.mu.Lock()
	if existing, ok := u.chasers[ch.ID]; ok {
		existing.Stop()
	}
	runner := chaser.NewRunner(ch, func(override map[int]uint8) {
		u.pipeline.SetChaserOverride(override)
		c.pushFrame(u)
	})
	u.chasers[ch.ID] = runner
	u.mu.Unlock()

	runner.Start()
}

// StopChaser stops a running chaser on a universe (spec §4.2: stop or
// manual fader override cancels it immediately).
func (c *Coordinator) StopChaser(universeID, chaserID string) {
	u := c.universe(universeID)
	if u == nil {
		return
	}
	u.mu.Lock()
	runner, ok := u.chasers[chaserID]
	delete(u.chasers, chaserID)
	u.mu.Unlock()
	if ok {
		runner.Stop()
	}
}

// StopAll clears every active scene and running chaser on a universe (spec
// §4.8: a mapped "stop" action blacks the universe out without touching the
// master dimmer).
func (c *Coordinator) StopAll(universeID string) {
	u := c.universe(universeID)
	if u == nil {
		return
	}

	c.stopChasers(u)

	for _, id := range u.pipeline.ActiveSceneIDs() {
		u.pipeline.RemoveActiveScene(id)
	}
	c.pushFrame(u)
}

// stopChasers halts and clears every running chaser on a universe without
// touching its active scenes. Shared by StopAll and SetFader (spec §4.3/§4.4:
// manual fader motion implicitly stops any running chaser).
func (c *Coordinator) stopChasers(u *universeRuntime) {
	u.mu.Lock()
	runners := make([]*chaser.Runner, 0, len(u.chasers))
	for id, runner := range u.chasers {
		runners = append(runners, runner)
		delete(u.chasers, id)
	}
	u.mu.Unlock()

	for _, runner := range runners {
		runner.Stop()
	}
}

// SetFader writes a manual fader value through a universe's programmer,
// stopping any running chaser first, then pushes the recomposed Default
// layer to the pipeline and the DMX driver (spec §4.3, §4.4 "Manual
// override"; §8 scenario 5).
func (c *Coordinator) SetFader(universeID, instanceID string, channelIndex int, value uint8) {
	u := c.universe(universeID)
	if u == nil {
		return
	}

	c.stopChasers(u)

	u.programmer.SetValue(instanceID, channelIndex, value)
	u.pipeline.SetDefaultFrame(u.programmer.SnapshotFrame())
	c.pushFrame(u)
}

// SetMasterDimmer debounces rapid fader movement into at most one pipeline
// update per masterDimmerDebounce window (spec §4.11).
func (c *Coordinator) SetMasterDimmer(universeID string, level uint8) {
	u := c.universe(universeID)
	if u == nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.pendingDimmer = level
	if u.dimmerDebounceSet {
		return
	}
	u.dimmerDebounceSet = true
	u.dimmerDebounce = time.AfterFunc(masterDimmerDebounce, func() {
		u.mu.Lock()
		level := u.pendingDimmer
		u.dimmerDebounceSet = false
		u.mu.Unlock()

		u.pipeline.SetMasterDimmer(level)
		c.pushFrame(u)
	})
}

func (c *Coordinator) universe(id string) *universeRuntime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.universes[id]
}

func (c *Coordinator) pushFrame(u *universeRuntime) {
	if u.driver != nil {
		u.driver.SetFrame(u.pipeline.Output())
	}
}

// LoadSong wires a song's audio clock, MIDI sequencer tracks, lyrics
// scheduler, and video slave, but does not start playback.
func (c *Coordinator) LoadSong(song *model.Song, clock *audioclock.Clock, sequencer *midisequencer.Sequencer, slave video.SeekSlave, onLyricIndex func(int)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.song = song
	c.clock = clock
	c.sequencer = sequencer
	c.videoSlave = slave

	c.lyricsSch = lyrics.New(song.Lyrics, clock, onLyricIndex)
}

// Play starts audio, MIDI tracks, the lyrics scheduler, and the video
// seek-slave together (spec §4.11: single orchestration point fanning out
// to every subsystem).
func (c *Coordinator) Play() {
	c.mu.RLock()
	clock, sequencer, song, slave := c.clock, c.sequencer, c.song, c.videoSlave
	lyricsSch := c.lyricsSch
	c.mu.RUnlock()

	if clock == nil {
		return
	}
	clock.Play()
	if lyricsSch != nil {
		lyricsSch.Start()
	}
	if slave != nil {
		slave.Play()
	}
	if sequencer != nil && song != nil {
		ports := hardwarePorts(song.MidiTracks)
		sequencer.StartClock(song.BPM(), ports)
		for i, track := range song.MidiTracks {
			_ = sequencer.PlayTrack(trackID(i), track)
		}
	}

	c.startVideoSync()
}

// Pause freezes audio and video together and stops the MIDI file tracks, so
// the next Play starts them afresh (spec §4.11).
func (c *Coordinator) Pause() {
	c.mu.RLock()
	clock, sequencer, song, slave := c.clock, c.sequencer, c.song, c.videoSlave
	lyricsSch := c.lyricsSch
	c.mu.RUnlock()

	if clock != nil {
		clock.Pause()
	}
	if lyricsSch != nil {
		lyricsSch.Stop()
	}
	if slave != nil {
		slave.Pause()
	}
	if sequencer != nil && song != nil {
		for i, track := range song.MidiTracks {
			sequencer.StopTrack(trackID(i), track)
		}
	}
	c.stopVideoSync()
}

// Stop halts and resets audio, MIDI, lyrics, and video together.
func (c *Coordinator) Stop() {
	c.mu.RLock()
	clock, sequencer, song, slave := c.clock, c.sequencer, c.song, c.videoSlave
	lyricsSch := c.lyricsSch
	c.mu.RUnlock()

	if clock != nil {
		clock.Stop()
	}
	if lyricsSch != nil {
		lyricsSch.Stop()
	}
	if slave != nil {
		slave.Pause()
	}
	if sequencer != nil && song != nil {
		sequencer.StopClock()
		for i, track := range song.MidiTracks {
			sequencer.StopTrack(trackID(i), track)
		}
	}
	c.stopVideoSync()
}

// Seek stops and restarts audio at offset (spec §4.6), re-syncing video to
// the new position (spec §4.11).
func (c *Coordinator) Seek(offset time.Duration) {
	c.mu.RLock()
	clock, slave := c.clock, c.videoSlave
	c.mu.RUnlock()

	if clock == nil {
		return
	}
	clock.Seek(offset)
	if slave != nil {
		slave.Seek(offset)
	}
}

func hardwarePorts(tracks []model.MidiTrack) []string {
	seen := make(map[string]bool)
	var ports []string
	for _, t := range tracks {
		if t.IsInternal() || t.PortName == "" || seen[t.PortName] {
			continue
		}
		seen[t.PortName] = true
		ports = append(ports, t.PortName)
	}
	return ports
}

func trackID(i int) string {
	return "track-" + strconv.Itoa(i)
}

// videoSyncInterval is how often the coordinator checks the video
// seek-slave's reported position against the master clock (spec §4.10/§4.11:
// re-sync on every 50ms tick if drift exceeds the correction threshold).
const videoSyncInterval = 50 * time.Millisecond

func (c *Coordinator) startVideoSync() {
	c.mu.Lock()
	if c.videoStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.videoStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(videoSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.checkVideoDrift()
			}
		}
	}()
}

func (c *Coordinator) stopVideoSync() {
	c.mu.Lock()
	stop := c.videoStop
	c.videoStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

func (c *Coordinator) checkVideoDrift() {
	c.mu.RLock()
	clock, slave := c.clock, c.videoSlave
	c.mu.RUnlock()
	if clock == nil || slave == nil {
		return
	}
	master := clock.Position()
	if video.NeedsCorrection(master, slave.Position()) {
		slave.Seek(master)
	}
}
