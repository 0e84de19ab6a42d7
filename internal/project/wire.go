package project

// These types mirror the exact on-disk JSON shapes from spec §6: an
// Italian-keyed project file (universes/instances/scenes/chasers/mappings)
// and a `.scn` song file. Field names match the wire format byte-for-byte;
// Go-idiomatic names live on the in-memory model.Project/model.Song types in
// internal/model, and conversion happens at the edges (toWire/fromWire).

type projectFileJSON struct {
	Universi []universeJSON `json:"universi"`
}

type universeJSON struct {
	ID                     int               `json:"id"`
	Nome                   string            `json:"nome"`
	Istanze                []instanceJSON    `json:"istanze"`
	Scene                  []sceneJSON       `json:"scene"`
	Chasers                []chaserJSON      `json:"chasers"`
	MidiMappings           []midiMappingJSON `json:"midi_mappings"`
	MidiChannel            int               `json:"midi_channel"`
	MidiControllerPortName string            `json:"midi_controller_port_name"`
	DMXPortName            string            `json:"dmx_port_name"`
}

type instanceJSON struct {
	ModelloNome string `json:"modello_nome"`
	Addr        int    `json:"addr"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	NomeUtente  string  `json:"nome_utente"`
}

type sceneJSON struct {
	Nome         string         `json:"nome"`
	ValoriCanali map[string]int `json:"valori_canali"` // keys are string-encoded channel addresses
}

type chaserJSON struct {
	Nome  string     `json:"nome"`
	Passi []passJSON `json:"passi"`
}

type passJSON struct {
	ScenaNome       string  `json:"scena_nome"`
	TempoPermanenza float64 `json:"tempo_permanenza"`
	TempoFadeIn     float64 `json:"tempo_fade_in"`
	TempoFadeOut    float64 `json:"tempo_fade_out"`
}

type midiMappingJSON struct {
	MidiType    string `json:"midi_type"`
	MidiNumber  int    `json:"midi_number"`
	Value       int    `json:"value"`
	ActionType  string `json:"action_type"`
	ActionIndex int    `json:"action_index"`
	InternalOnly bool  `json:"internal_only"`
}

// songFileJSON is the `.scn` file shape (spec §6).
type songFileJSON struct {
	Name       string          `json:"name"`
	AudioTracks []audioTrackJSON `json:"audio_tracks"`
	MidiTracks []midiTrackJSON `json:"midi_tracks"`
	Lyrics     []lyricJSON     `json:"lyrics"`
	LyricsTxt  *string         `json:"lyrics_txt"`
}

type audioTrackJSON struct {
	File               string   `json:"file"`
	Output             int      `json:"output"`
	Channels           int      `json:"channels"`
	ChannelsUsed       int      `json:"channels_used"`
	OutputStartChannel int      `json:"output_start_channel"`
	BPM                *float64 `json:"bpm"`
}

type midiTrackJSON struct {
	File    *string `json:"file"`
	Channel int     `json:"channel"`
	Port    *string `json:"port"`
}

type lyricJSON struct {
	Line string  `json:"line"`
	Time float64 `json:"time"`
}

// fixtureProfileJSON is one entry of the flat fixture-profile list (spec §6).
type fixtureProfileJSON struct {
	Nome   string       `json:"nome"`
	Canali []channelJSON `json:"canali"`
}

type channelJSON struct {
	Nome     string `json:"nome"`
	Funzione string `json:"funzione"`
	Default  int    `json:"default"`
}
