package coordinator

import (
	"testing"
	"time"

	"github.com/castlight/showcore/internal/dmxdriver"
	"github.com/castlight/showcore/internal/model"
)

func newTestDriver(t *testing.T) (*dmxdriver.Driver, *dmxdriver.SimTransmitter) {
	t.Helper()
	sim := dmxdriver.NewSimTransmitter()
	driver := dmxdriver.NewDriver(dmxdriver.Config{PortName: "sim", RefreshRate: 200}, sim)
	if err := driver.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(driver.Stop)
	return driver, sim
}

func waitForAddress(t *testing.T, sim *dmxdriver.SimTransmitter, addr int, want uint8) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		frame := sim.LastFrame()
		if len(frame) > addr && frame[addr] == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("address %d never reached %d", addr, want)
}

// newFaderUniverse builds a universe with one fixture instance at address 1
// (an HTP "dimmer" channel defaulting to 10) and address 2 (a plain LTP
// channel), for exercising the programmer/Default layer.
func newFaderUniverse() *model.Universe {
	u := model.NewUniverse("u1", "Main Rig")
	fm := &model.FixtureModel{
		Name: "Dimmer",
		Channels: []model.ChannelDescriptor{
			{Name: "Dimmer", Function: "intensity", Default: 10},
			{Name: "Gobo", Function: "gobo", Default: 0},
		},
	}
	_ = u.AddInstance(model.NewFixtureInstance("inst1", "Dimmer 1", fm, 1))
	return u
}

func TestAddActiveScenePushesFrameToDriver(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(model.NewUniverse("u1", "Main Rig"), driver)

	scene := model.NewScene("s1", "Full Red")
	scene.Values[1] = 255

	c.AddActiveScene("u1", scene, 255)

	waitForAddress(t, sim, 1, 255)
}

func TestRemoveActiveSceneClearsOutput(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(model.NewUniverse("u1", "Main Rig"), driver)

	scene := model.NewScene("s1", "Full Red")
	scene.Values[1] = 200
	c.AddActiveScene("u1", scene, 255)
	waitForAddress(t, sim, 1, 200)

	c.RemoveActiveScene("u1", "s1")
	waitForAddress(t, sim, 1, 0)
}

func TestSetMasterDimmerDebouncesRapidCalls(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(model.NewUniverse("u1", "Main Rig"), driver)

	scene := model.NewScene("s1", "Full White")
	scene.Values[1] = 255
	c.AddActiveScene("u1", scene, 255)
	waitForAddress(t, sim, 1, 255)

	for i := 0; i < 10; i++ {
		c.SetMasterDimmer("u1", 128)
	}

	waitForAddress(t, sim, 1, 128)

	pipeline := c.Pipeline("u1")
	if pipeline.MasterDimmer() != 128 {
		t.Fatalf("MasterDimmer() = %d, want 128", pipeline.MasterDimmer())
	}
}

func TestSaveActiveScenesCapturesComposedOutput(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(model.NewUniverse("u1", "Main Rig"), driver)

	scene := model.NewScene("s1", "Full Red")
	scene.Values[1] = 255
	scene.Values[2] = 64
	c.AddActiveScene("u1", scene, 255)
	waitForAddress(t, sim, 1, 255)

	// Lower the master dimmer; SaveActiveScenes must capture the pre-dimmer
	// composed look, not the dimmed output.
	c.SetMasterDimmer("u1", 64)
	waitForAddress(t, sim, 1, 64)

	saved := c.SaveActiveScenes("u1", "snap1", "Snapshot")
	if saved.Values[1] != 255 || saved.Values[2] != 64 {
		t.Fatalf("SaveActiveScenes() = %+v, want composed (pre-dimmer) values", saved.Values)
	}
}

func TestStartStopChaserOverridesAndClears(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(model.NewUniverse("u1", "Main Rig"), driver)

	stepScene := model.NewScene("chase-step", "Step")
	stepScene.Values[3] = 200

	ch := &model.Chaser{
		ID:   "c1",
		Name: "Pulse",
		Steps: []model.ChaserStep{
			{Scene: stepScene, Hold: 200 * time.Millisecond},
		},
	}

	c.StartChaser("u1", ch)
	waitForAddress(t, sim, 3, 200)

	c.StopChaser("u1", "c1")
	waitForAddress(t, sim, 3, 0)
}

func TestUnregisteredUniverseIsNoop(t *testing.T) {
	c := New()
	scene := model.NewScene("s1", "Full Red")
	// None of these should panic against an unregistered universe.
	c.AddActiveScene("missing", scene, 255)
	c.RemoveActiveScene("missing", "s1")
	c.SetMasterDimmer("missing", 10)
	c.StopChaser("missing", "c1")
	if got := c.SaveActiveScenes("missing", "x", "x"); got != nil {
		t.Fatalf("SaveActiveScenes() on missing universe = %+v, want nil", got)
	}
	if got := c.Pipeline("missing"); got != nil {
		t.Fatalf("Pipeline() on missing universe = %+v, want nil", got)
	}
}

func TestPlayPauseStopWithoutLoadedSongIsNoop(t *testing.T) {
	c := New()
	// No song loaded; these must not panic.
	c.Play()
	c.Pause()
	c.Stop()
	c.Seek(time.Second)
}

func TestAddUniverseSeedsDefaultLayerFromChannelDefaults(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(newFaderUniverse(), driver)

	// Spec §4.3 layer 1: with no scenes and no chaser, covered addresses
	// carry their channel defaults, not zero.
	waitForAddress(t, sim, 1, 10)
}

func TestSetFaderWritesThroughProgrammerAndStopsChaser(t *testing.T) {
	driver, sim := newTestDriver(t)
	c := New()
	c.AddUniverse(newFaderUniverse(), driver)

	stepScene := model.NewScene("chase-step", "Step")
	stepScene.Values[2] = 200
	ch := &model.Chaser{
		ID:   "c1",
		Name: "Pulse",
		Steps: []model.ChaserStep{
			{Scene: stepScene, Hold: 500 * time.Millisecond},
		},
	}
	c.StartChaser("u1", ch)
	waitForAddress(t, sim, 2, 200)

	c.SetFader("u1", "inst1", 0, 77)
	waitForAddress(t, sim, 1, 77)

	u := c.universe("u1")
	u.mu.Lock()
	running := len(u.chasers)
	u.mu.Unlock()
	if running != 0 {
		t.Fatalf("chasers still running after SetFader = %d, want 0 (manual override must stop them)", running)
	}
}
