package config

import (
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"time"
)

const MaxRecent = 10

type RecentFile struct {
	Path string `json:"path"`
	Time int64  `json:"time"`
}
type RecentFiles []RecentFile

// Preferences remembers the memory files and MIDI files opened lately. The
// lists are kept oldest first.
type Preferences struct {
	RecentSessions RecentFiles `json:"recent_sessions"`
	RecentTracks   RecentFiles `json:"recent_tracks"`

	path string
}

// LoadPreferences reads path. A missing or empty file yields empty lists.
func LoadPreferences(path string) (*Preferences, error) {
	prefs := &Preferences{
		RecentSessions: RecentFiles{},
		RecentTracks:   RecentFiles{},
		path:           path,
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return prefs, nil
	}
	if err := json.Unmarshal(data, prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// unique keeps the last occurrence of each path and at most MaxRecent items.
func unique(sl RecentFiles) RecentFiles {
	seen := map[string]bool{}
	out := RecentFiles{}
	for i := len(sl) - 1; i >= 0; i-- {
		if seen[sl[i].Path] {
			continue
		}
		seen[sl[i].Path] = true
		out = append(out, sl[i])
	}
	if len(out) > MaxRecent {
		out = out[:MaxRecent]
	}
	slices.Reverse(out)
	return out
}

func (p *Preferences) Save() error {
	f, err := os.Create(p.path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Join(enc.Encode(p), f.Close())
}

func (p *Preferences) AddTrack(path string) {
	p.RecentTracks = unique(append(p.RecentTracks, RecentFile{
		Path: path,
		Time: time.Now().Unix(),
	}))
}

func (p *Preferences) AddSession(path string) {
	p.RecentSessions = unique(append(p.RecentSessions, RecentFile{
		Path: path,
		Time: time.Now().Unix(),
	}))
}

// Sessions lists recent memory files, newest first.
func (p *Preferences) Sessions() RecentFiles {
	s := slices.Clone(p.RecentSessions)
	slices.Reverse(s)
	return s
}

func (p *Preferences) Tracks() RecentFiles {
	s := slices.Clone(p.RecentTracks)
	slices.Reverse(s)
	return s
}

// Prune drops entries whose file is gone.
func (p *Preferences) Prune() {
	gone := func(rf RecentFile) bool {
		_, err := os.Stat(rf.Path)
		return err != nil
	}
	p.RecentSessions = slices.DeleteFunc(p.RecentSessions, gone)
	p.RecentTracks = slices.DeleteFunc(p.RecentTracks, gone)
}

func (p *Preferences) DeleteTrack(path string) {
	p.RecentTracks = slices.DeleteFunc(p.RecentTracks, func(e RecentFile) bool {
		return e.Path == path
	})
}
