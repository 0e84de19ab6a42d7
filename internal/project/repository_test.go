package project

import (
	"context"
	"testing"
	"time"

	"github.com/castlight/showcore/internal/model"
)

func TestProjectSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	projectRepo, _, profileRepo, err := NewRepositories(dir)
	if err != nil {
		t.Fatalf("NewRepositories() error = %v", err)
	}
	ctx := context.Background()

	fm := &model.FixtureModel{
		Name: "par-64",
		Channels: []model.ChannelDescriptor{
			{Name: "Dimmer", Function: "intensity"},
			{Name: "Red", Function: "colour"},
		},
	}
	if err := profileRepo.Save(ctx, []*model.FixtureModel{fm}); err != nil {
		t.Fatalf("profileRepo.Save() error = %v", err)
	}

	u := model.NewUniverse("1", "Main Rig")
	inst := model.NewFixtureInstance("par-1", "Par 1", fm, 1)
	if err := u.AddInstance(inst); err != nil {
		t.Fatal(err)
	}

	scene := model.NewScene("s1", "Full Red")
	scene.Values[1] = 255
	scene.Values[2] = 200

	chaser := &model.Chaser{
		ID:   "c1",
		Name: "Pulse",
		Steps: []model.ChaserStep{
			{Scene: scene, Hold: 500 * time.Millisecond, FadeIn: 250 * time.Millisecond},
		},
	}

	mapping := &model.MidiMapping{
		ID:      "m1",
		Trigger: model.Trigger{Type: model.TriggerNote, Number: 60, Threshold: 1},
		Action:  model.Action{Kind: model.ActionScene, Index: 0},
	}

	proj := &model.Project{
		Universes: []*model.ProjectUniverse{
			{
				Universe:                u,
				Scenes:                  []*model.Scene{scene},
				Chasers:                 []*model.Chaser{chaser},
				Mappings:                []*model.MidiMapping{mapping},
				MidiFilterChannel:       2,
				MidiControllerPortName: "USB MIDI",
				DMXPortName:            "/dev/ttyUSB0",
			},
		},
	}

	if err := projectRepo.Save(ctx, proj); err != nil {
		t.Fatalf("projectRepo.Save() error = %v", err)
	}

	loaded, err := projectRepo.Load(ctx)
	if err != nil {
		t.Fatalf("projectRepo.Load() error = %v", err)
	}
	if len(loaded.Universes) != 1 {
		t.Fatalf("loaded %d universes, want 1", len(loaded.Universes))
	}
	lu := loaded.Universes[0]
	if lu.Universe.Name != "Main Rig" || lu.DMXPortName != "/dev/ttyUSB0" || lu.MidiFilterChannel != 2 {
		t.Fatalf("universe round-trip mismatch: %+v", lu)
	}
	if len(lu.Universe.Instances) != 1 || lu.Universe.Instances[0].StartAddress != 1 {
		t.Fatalf("instance round-trip mismatch: %+v", lu.Universe.Instances)
	}
	if len(lu.Scenes) != 1 || lu.Scenes[0].Values[1] != 255 || lu.Scenes[0].Values[2] != 200 {
		t.Fatalf("scene round-trip mismatch: %+v", lu.Scenes)
	}
	if len(lu.Chasers) != 1 || len(lu.Chasers[0].Steps) != 1 {
		t.Fatalf("chaser round-trip mismatch: %+v", lu.Chasers)
	}
	gotStep := lu.Chasers[0].Steps[0]
	if gotStep.Hold != 500*time.Millisecond || gotStep.FadeIn != 250*time.Millisecond {
		t.Fatalf("chaser step timing mismatch: %+v", gotStep)
	}
	if len(lu.Mappings) != 1 || lu.Mappings[0].Trigger.Number != 60 {
		t.Fatalf("mapping round-trip mismatch: %+v", lu.Mappings)
	}
}

func TestProjectLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	projectRepo, _, _, err := NewRepositories(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, err := projectRepo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if len(p.Universes) != 0 {
		t.Fatalf("expected empty project, got %+v", p)
	}
}

func TestSongSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, songRepo, _, err := NewRepositories(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	bpm := 128.0
	song := &model.Song{
		Name: "opening-number",
		AudioTracks: []model.AudioTrack{
			{FilePath: "/media/opening.wav", DeviceIndex: 0, SourceChannelsUsed: 2, OutputStartChannel: 1, BPM: &bpm},
		},
		MidiTracks: []model.MidiTrack{
			{FilePath: "/media/opening.mid", Channel: 1, PortName: model.InternalDMXPort},
		},
		Lyrics: []model.LyricLine{
			{Line: "hello darkness", Time: 0},
			{Line: "my old friend", Time: 4.5},
		},
		LyricsSourceFile: "opening.txt",
	}

	if err := songRepo.Save(ctx, song); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	names, err := songRepo.List(ctx)
	if err != nil || len(names) != 1 || names[0] != "opening-number" {
		t.Fatalf("List() = %v, %v, want [opening-number]", names, err)
	}

	loaded, err := songRepo.Load(ctx, "opening-number")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Name != "opening-number" || loaded.LyricsSourceFile != "opening.txt" {
		t.Fatalf("song round-trip mismatch: %+v", loaded)
	}
	if len(loaded.AudioTracks) != 1 || loaded.AudioTracks[0].BPM == nil || *loaded.AudioTracks[0].BPM != 128.0 {
		t.Fatalf("audio track round-trip mismatch: %+v", loaded.AudioTracks)
	}
	if len(loaded.MidiTracks) != 1 || !loaded.MidiTracks[0].IsInternal() {
		t.Fatalf("midi track round-trip mismatch: %+v", loaded.MidiTracks)
	}
	if len(loaded.Lyrics) != 2 || loaded.Lyrics[1].Time != 4.5 {
		t.Fatalf("lyrics round-trip mismatch: %+v", loaded.Lyrics)
	}

	if err := songRepo.Delete(ctx, "opening-number"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	names, _ = songRepo.List(ctx)
	if len(names) != 0 {
		t.Fatalf("expected 0 songs after delete, got %v", names)
	}
}
