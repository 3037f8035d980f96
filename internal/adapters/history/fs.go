package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/riftline/mmr/internal/domain/model"
)

// recordExtension is the file extension the source scans for.
const recordExtension = ".json"

// Wire format of one history file. Team placement is stamped onto each
// player's stat line when the record is loaded, so the engine never has
// to walk the team structure for it.
type fileRecord struct {
	Name  string     `json:"name"`
	Games []fileGame `json:"games"`
}

type fileGame struct {
	PlayedAt string     `json:"played_at,omitempty"`
	Teams    []fileTeam `json:"teams"`
}

type fileTeam struct {
	Placement int          `json:"placement"`
	Players   []filePlayer `json:"players"`
}

type filePlayer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kills       int     `json:"kills"`
	Assists     int     `json:"assists"`
	DamageDealt float64 `json:"damage_dealt"`
	Revives     int     `json:"revives"`
}

// FSSource reads history records from a directory of JSON files, one
// file per tournament day. File names like 2024-03-17_scrims.json sort
// chronologically as plain strings.
type FSSource struct {
	dir string
}

// NewFSSource creates a source rooted at dir.
func NewFSSource(dir string) *FSSource {
	return &FSSource{dir: dir}
}

// List returns the record file names sorted lexicographically, which
// under the date-prefixed naming scheme is chronological order.
func (s *FSSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list history dir %s: %w", s.dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExtension) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads and parses one record file.
func (s *FSSource) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(id)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", id, err)
	}

	var fr fileRecord
	if err := json.Unmarshal(raw, &fr); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", id, err, ErrParse)
	}

	rec := &Record{
		ID:   id,
		Name: fr.Name,
	}
	for i, fg := range fr.Games {
		game, err := fg.toModel(int64(i))
		if err != nil {
			return nil, fmt.Errorf("%s game %d: %v: %w", id, i, err, ErrParse)
		}
		rec.Games = append(rec.Games, game)
	}
	return rec, nil
}

func (fg fileGame) toModel(seq int64) (model.Game, error) {
	game := model.Game{SortKey: seq}
	if fg.PlayedAt != "" {
		ts, err := time.Parse(time.RFC3339, fg.PlayedAt)
		if err != nil {
			return model.Game{}, fmt.Errorf("bad played_at %q: %v", fg.PlayedAt, err)
		}
		game.PlayedAt = ts
	}
	for _, ft := range fg.Teams {
		if ft.Placement < 1 {
			return model.Game{}, fmt.Errorf("bad team placement %d", ft.Placement)
		}
		team := model.Team{Placement: ft.Placement}
		for _, fp := range ft.Players {
			if fp.ID == "" {
				return model.Game{}, fmt.Errorf("player with empty id")
			}
			team.Players = append(team.Players, model.PlayerGameStat{
				PlayerKey:   model.PlayerKey(fp.ID),
				DisplayName: fp.Name,
				Placement:   ft.Placement,
				Kills:       fp.Kills,
				Assists:     fp.Assists,
				DamageDealt: fp.DamageDealt,
				Revives:     fp.Revives,
			})
		}
		game.Teams = append(game.Teams, team)
	}
	return game, nil
}
