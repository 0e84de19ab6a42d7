// Package project persists Projects, Songs, and fixture profiles to the flat
// JSON files spec §6 mandates, mirroring the original application's file
// layout: a single project.json, one .scn file per song under songs/, and a
// flat fixture_profiles.json list.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/showerr"
)

// ProjectRepository loads and saves the single active Project.
type ProjectRepository interface {
	Load(ctx context.Context) (*model.Project, error)
	Save(ctx context.Context, p *model.Project) error
}

// SongRepository loads, saves, lists, and deletes Songs by name.
type SongRepository interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*model.Song, error)
	Save(ctx context.Context, song *model.Song) error
	Delete(ctx context.Context, name string) error
}

// FixtureProfileRepository loads and saves the flat fixture-model catalog.
type FixtureProfileRepository interface {
	Load(ctx context.Context) (map[string]*model.FixtureModel, error)
	Save(ctx context.Context, models []*model.FixtureModel) error
}

const songExtension = ".scn"

var (
	_ ProjectRepository         = (*FileProjectRepository)(nil)
	_ SongRepository            = (*FileSongRepository)(nil)
	_ FixtureProfileRepository  = (*FileFixtureProfileRepository)(nil)
)

// dataDirs is embedded by every JSON-file repository below so they share one
// data directory layout without repeating path plumbing.
type dataDirs struct {
	dataDir string
}

func (d dataDirs) projectPath() string  { return filepath.Join(d.dataDir, "project.json") }
func (d dataDirs) songsDir() string     { return filepath.Join(d.dataDir, "songs") }
func (d dataDirs) songPath(n string) string {
	return filepath.Join(d.songsDir(), n+songExtension)
}
func (d dataDirs) profilesPath() string { return filepath.Join(d.dataDir, "fixture_profiles.json") }

// NewRepositories ensures dataDir (and its songs/ subdirectory) exist, then
// returns ready-to-use repositories for a project, its songs, and the
// fixture-model catalog, all backed by the same data directory.
func NewRepositories(dataDir string) (*FileProjectRepository, *FileSongRepository, *FileFixtureProfileRepository, error) {
	dirs := dataDirs{dataDir: dataDir}
	if err := os.MkdirAll(dirs.songsDir(), 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: creating data dir %q: %v", showerr.ErrIoDecode, dataDir, err)
	}
	profiles := &FileFixtureProfileRepository{dirs}
	return &FileProjectRepository{dirs, profiles}, &FileSongRepository{dirs}, profiles, nil
}

// FileProjectRepository implements ProjectRepository against project.json.
// It needs the fixture-profile catalog to resolve instances' fixture models
// by name while loading.
type FileProjectRepository struct {
	dataDirs
	profiles *FileFixtureProfileRepository
}

// Load reads project.json. A missing or corrupt file yields an empty
// Project, matching the original app's "falls back to an empty project"
// behaviour (spec §6).
func (r *FileProjectRepository) Load(ctx context.Context) (*model.Project, error) {
	profiles, err := r.profiles.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.projectPath())
	if os.IsNotExist(err) {
		return &model.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", showerr.ErrIoDecode, r.projectPath(), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &model.Project{}, nil
	}

	var wire projectFileJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return &model.Project{}, nil
	}

	return wireToProject(&wire, profiles)
}

// Save writes the project as indented JSON (spec §6).
func (r *FileProjectRepository) Save(ctx context.Context, p *model.Project) error {
	return writeJSONAtomic(r.projectPath(), projectToWire(p))
}

// FileSongRepository implements SongRepository against songs/*.scn.
type FileSongRepository struct {
	dataDirs
}

// List returns every saved song's name.
func (r *FileSongRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.songsDir())
	if err != nil {
		return nil, fmt.Errorf("%w: listing songs: %v", showerr.ErrIoDecode, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), songExtension) {
			names = append(names, strings.TrimSuffix(e.Name(), songExtension))
		}
	}
	return names, nil
}

// Load reads a .scn file by song name.
func (r *FileSongRepository) Load(ctx context.Context, name string) (*model.Song, error) {
	data, err := os.ReadFile(r.songPath(name))
	if err != nil {
		return nil, fmt.Errorf("%w: reading song %q: %v", showerr.ErrIoDecode, name, err)
	}
	var wire songFileJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: decoding song %q: %v", showerr.ErrIoDecode, name, err)
	}
	song := wireToSong(&wire)
	if song.Name == "" {
		song.Name = name
	}
	return song, nil
}

// Save writes a song's .scn file.
func (r *FileSongRepository) Save(ctx context.Context, song *model.Song) error {
	return writeJSONAtomic(r.songPath(song.Name), songToWire(song))
}

// Delete removes a song's .scn file. Missing files are not an error.
func (r *FileSongRepository) Delete(ctx context.Context, name string) error {
	err := os.Remove(r.songPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting song %q: %v", showerr.ErrIoDecode, name, err)
	}
	return nil
}

// FileFixtureProfileRepository implements FixtureProfileRepository against
// fixture_profiles.json.
type FileFixtureProfileRepository struct {
	dataDirs
}

// Load reads fixture_profiles.json, returning an empty map if the file
// doesn't exist yet or is corrupt.
func (r *FileFixtureProfileRepository) Load(ctx context.Context) (map[string]*model.FixtureModel, error) {
	data, err := os.ReadFile(r.profilesPath())
	if os.IsNotExist(err) {
		return map[string]*model.FixtureModel{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", showerr.ErrIoDecode, r.profilesPath(), err)
	}

	var wire []fixtureProfileJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return map[string]*model.FixtureModel{}, nil
	}

	out := make(map[string]*model.FixtureModel, len(wire))
	for _, w := range wire {
		out[w.Nome] = wireToFixtureModel(w)
	}
	return out, nil
}

// Save writes the flat fixture-model catalog.
func (r *FileFixtureProfileRepository) Save(ctx context.Context, models []*model.FixtureModel) error {
	wire := make([]fixtureProfileJSON, 0, len(models))
	for _, m := range models {
		wire = append(wire, fixtureModelToWire(m))
	}
	return writeJSONAtomic(r.profilesPath(), wire)
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %q: %v", showerr.ErrIoDecode, path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %q: %v", showerr.ErrIoDecode, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: renaming %q: %v", showerr.ErrIoDecode, tmp, err)
	}
	return nil
}
