package project

import (
	"fmt"
	"strconv"
	"time"

	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/showerr"
)

func projectToWire(p *model.Project) *projectFileJSON {
	out := &projectFileJSON{}
	for i, pu := range p.Universes {
		out.Universi = append(out.Universi, universeToWire(i+1, pu))
	}
	return out
}

func universeToWire(id int, pu *model.ProjectUniverse) universeJSON {
	u := universeJSON{
		ID:                     id,
		Nome:                   pu.Universe.Name,
		MidiChannel:            pu.MidiFilterChannel,
		MidiControllerPortName: pu.MidiControllerPortName,
		DMXPortName:            pu.DMXPortName,
	}

	for _, inst := range pu.Universe.Instances {
		u.Istanze = append(u.Istanze, instanceJSON{
			ModelloNome: inst.Model.Name,
			Addr:        inst.StartAddress,
			NomeUtente:  inst.Name,
		})
	}

	for _, scene := range pu.Scenes {
		u.Scene = append(u.Scene, sceneToWire(scene))
	}

	for _, chaser := range pu.Chasers {
		u.Chasers = append(u.Chasers, chaserToWire(chaser))
	}

	for _, m := range pu.Mappings {
		u.MidiMappings = append(u.MidiMappings, mappingToWire(m))
	}

	return u
}

func sceneToWire(s *model.Scene) sceneJSON {
	values := make(map[string]int, len(s.Values))
	for addr, v := range s.Values {
		values[strconv.Itoa(addr)] = int(v)
	}
	return sceneJSON{Nome: s.Name, ValoriCanali: values}
}

func chaserToWire(c *model.Chaser) chaserJSON {
	out := chaserJSON{Nome: c.Name}
	for _, step := range c.Steps {
		out.Passi = append(out.Passi, passJSON{
			ScenaNome:       step.Scene.Name,
			TempoPermanenza: step.Hold.Seconds(),
			TempoFadeIn:     step.FadeIn.Seconds(),
			TempoFadeOut:    step.FadeOut.Seconds(),
		})
	}
	return out
}

func mappingToWire(m *model.MidiMapping) midiMappingJSON {
	return midiMappingJSON{
		MidiType:    string(m.Trigger.Type),
		MidiNumber:  m.Trigger.Number,
		Value:       m.Trigger.Threshold,
		ActionType:  string(m.Action.Kind),
		ActionIndex: m.Action.Index,
		InternalOnly: m.InternalOnly,
	}
}

// wireToProject reconstructs a model.Project from the on-disk shape,
// resolving fixture models by name and chaser steps by scene name — mirroring
// the original app's load_progetto behaviour, including its defaults for
// missing fields (spec §6: "loaders are tolerant of partial/old files").
func wireToProject(w *projectFileJSON, models map[string]*model.FixtureModel) (*model.Project, error) {
	p := &model.Project{}

	for _, uw := range w.Universi {
		u := model.NewUniverse(strconv.Itoa(uw.ID), uw.Nome)

		for _, iw := range uw.Istanze {
			fm, ok := models[iw.ModelloNome]
			if !ok {
				return nil, fmt.Errorf("%w: fixture model %q referenced by instance %q not found", showerr.ErrIoDecode, iw.ModelloNome, iw.NomeUtente)
			}
			inst := model.NewFixtureInstance(iw.NomeUtente, iw.NomeUtente, fm, iw.Addr)
			if err := u.AddInstance(inst); err != nil {
				return nil, err
			}
		}

		pu := &model.ProjectUniverse{
			Universe:                u,
			MidiFilterChannel:       uw.MidiChannel,
			MidiControllerPortName:  uw.MidiControllerPortName,
			DMXPortName:             uw.DMXPortName,
		}

		sceneByName := make(map[string]*model.Scene)
		for _, sw := range uw.Scene {
			scene := model.NewScene(sw.Nome, sw.Nome)
			for addrStr, v := range sw.ValoriCanali {
				addr, err := strconv.Atoi(addrStr)
				if err != nil {
					continue
				}
				scene.Values[addr] = uint8(v)
			}
			pu.Scenes = append(pu.Scenes, scene)
			sceneByName[scene.Name] = scene
		}

		for _, cw := range uw.Chasers {
			chaser := &model.Chaser{ID: cw.Nome, Name: cw.Nome}
			for _, pw := range cw.Passi {
				scene, ok := sceneByName[pw.ScenaNome]
				if !ok {
					continue // original app silently skips steps whose scene vanished
				}
				chaser.Steps = append(chaser.Steps, model.ChaserStep{
					Scene:   scene,
					Hold:    durationFromSeconds(pw.TempoPermanenza),
					FadeIn:  durationFromSeconds(pw.TempoFadeIn),
					FadeOut: durationFromSeconds(pw.TempoFadeOut),
				})
			}
			if len(chaser.Steps) > 0 {
				pu.Chasers = append(pu.Chasers, chaser)
			}
		}

		for _, mw := range uw.MidiMappings {
			pu.Mappings = append(pu.Mappings, &model.MidiMapping{
				ID: fmt.Sprintf("%s-%d-%d", mw.MidiType, mw.MidiNumber, mw.ActionIndex),
				Trigger: model.Trigger{
					Type:      model.TriggerType(mw.MidiType),
					Number:    mw.MidiNumber,
					Threshold: mw.Value,
				},
				Action: model.Action{
					Kind:  model.ActionKind(mw.ActionType),
					Index: mw.ActionIndex,
				},
				InternalOnly: mw.InternalOnly,
			})
		}

		p.Universes = append(p.Universes, pu)
	}

	return p, nil
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func songToWire(s *model.Song) *songFileJSON {
	out := &songFileJSON{Name: s.Name}
	if s.LyricsSourceFile != "" {
		out.LyricsTxt = &s.LyricsSourceFile
	}
	for _, t := range s.AudioTracks {
		out.AudioTracks = append(out.AudioTracks, audioTrackJSON{
			File:               t.FilePath,
			Output:             t.DeviceIndex,
			ChannelsUsed:       t.SourceChannelsUsed,
			OutputStartChannel: t.OutputStartChannel,
			BPM:                t.BPM,
		})
	}
	for _, t := range s.MidiTracks {
		file := t.FilePath
		port := t.PortName
		out.MidiTracks = append(out.MidiTracks, midiTrackJSON{File: &file, Channel: t.Channel, Port: &port})
	}
	for _, l := range s.Lyrics {
		out.Lyrics = append(out.Lyrics, lyricJSON{Line: l.Line, Time: l.Time})
	}
	return out
}

func wireToSong(w *songFileJSON) *model.Song {
	s := &model.Song{Name: w.Name}
	if w.LyricsTxt != nil {
		s.LyricsSourceFile = *w.LyricsTxt
	}
	for _, t := range w.AudioTracks {
		s.AudioTracks = append(s.AudioTracks, model.AudioTrack{
			FilePath:           t.File,
			DeviceIndex:        t.Output,
			SourceChannelsUsed: t.ChannelsUsed,
			OutputStartChannel: t.OutputStartChannel,
			BPM:                t.BPM,
		})
	}
	for _, t := range w.MidiTracks {
		mt := model.MidiTrack{Channel: t.Channel}
		if t.File != nil {
			mt.FilePath = *t.File
		}
		if t.Port != nil {
			mt.PortName = *t.Port
		}
		s.MidiTracks = append(s.MidiTracks, mt)
	}
	for _, l := range w.Lyrics {
		s.Lyrics = append(s.Lyrics, model.LyricLine{Line: l.Line, Time: l.Time})
	}
	return s
}

func fixtureModelToWire(m *model.FixtureModel) fixtureProfileJSON {
	out := fixtureProfileJSON{Nome: m.Name}
	for _, c := range m.Channels {
		out.Canali = append(out.Canali, channelJSON{Nome: c.Name, Funzione: c.Function, Default: int(c.Default)})
	}
	return out
}

func wireToFixtureModel(w fixtureProfileJSON) *model.FixtureModel {
	m := &model.FixtureModel{Name: w.Nome}
	for _, c := range w.Canali {
		m.Channels = append(m.Channels, model.ChannelDescriptor{
			Name:     c.Nome,
			Function: c.Funzione,
			Default:  uint8(c.Default),
		})
	}
	return m
}
