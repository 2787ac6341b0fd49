package sources

import (
	"io"

	"github.com/brendontj/lol-staging/pkg/staging"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type jsonMatch struct {
	MatchID      string            `json:"match_id"`
	Region       *string           `json:"region"`
	Platform     string            `json:"platform"`
	QueueID      *int              `json:"queue_id"`
	QueueName    string            `json:"queue_name"`
	Season       *int              `json:"season"`
	GameVersion  string            `json:"game_version"`
	GameCreation *string           `json:"game_creation"`
	GameDuration *int              `json:"game_duration"`
	GameMode     string            `json:"game_mode"`
	GameType     string            `json:"game_type"`
	MapID        *int              `json:"map_id"`
	Teams        []jsonTeam        `json:"teams"`
	Participants []jsonParticipant `json:"participants"`
}

type jsonTeam struct {
	TeamID          *int  `json:"team_id"`
	Win             *bool `json:"win"`
	FirstBlood      *bool `json:"first_blood"`
	FirstTower      *bool `json:"first_tower"`
	FirstInhibitor  *bool `json:"first_inhibitor"`
	FirstBaron      *bool `json:"first_baron"`
	FirstDragon     *bool `json:"first_dragon"`
	FirstRiftHerald *bool `json:"first_rift_herald"`
	TowerKills      *int  `json:"tower_kills"`
	InhibitorKills  *int  `json:"inhibitor_kills"`
	BaronKills      *int  `json:"baron_kills"`
	DragonKills     *int  `json:"dragon_kills"`
	RiftHeraldKills *int  `json:"rift_herald_kills"`
}

type jsonParticipant struct {
	SummonerID       *string `json:"summoner_id"`
	SummonerName     *string `json:"summoner_name"`
	ChampionID       *int    `json:"champion_id"`
	ChampionName     *string `json:"champion_name"`
	TeamID           *int    `json:"team_id"`
	Kills            *int    `json:"kills"`
	Deaths           *int    `json:"deaths"`
	Assists          *int    `json:"assists"`
	GoldEarned       *int    `json:"gold_earned"`
	TotalDamageDealt *int    `json:"total_damage_dealt"`
	VisionScore      *int    `json:"vision_score"`
	Win              *bool   `json:"win"`
}

// ReadJSON decodes the nested export: a JSON array of matches, each with teams[] and
// participants[]. Every participant is kept; staging only reads the first one.
func ReadJSON(r io.Reader) ([]staging.RawMatch, error) {
	var payload []jsonMatch
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[source error] unable to decode json matches")
	}

	matches := make([]staging.RawMatch, 0, len(payload))
	for _, jm := range payload {
		m := staging.RawMatch{
			MatchID:      jm.MatchID,
			Region:       jm.Region,
			Platform:     jm.Platform,
			QueueID:      jm.QueueID,
			QueueName:    jm.QueueName,
			Season:       jm.Season,
			GameVersion:  jm.GameVersion,
			GameDuration: jm.GameDuration,
			GameMode:     jm.GameMode,
			GameType:     jm.GameType,
			MapID:        jm.MapID,
		}
		if jm.GameCreation != nil {
			m.GameCreation = parseTime(*jm.GameCreation)
		}
		for i, t := range jm.Teams {
			if i >= len(m.Teams) {
				break
			}
			m.Teams[i] = staging.RawTeam{
				SideID:          t.TeamID,
				Win:             t.Win,
				FirstBlood:      t.FirstBlood,
				FirstTower:      t.FirstTower,
				FirstInhibitor:  t.FirstInhibitor,
				FirstBaron:      t.FirstBaron,
				FirstDragon:     t.FirstDragon,
				FirstRiftHerald: t.FirstRiftHerald,
				TowerKills:      t.TowerKills,
				InhibitorKills:  t.InhibitorKills,
				BaronKills:      t.BaronKills,
				DragonKills:     t.DragonKills,
				RiftHeraldKills: t.RiftHeraldKills,
			}
		}
		for _, p := range jm.Participants {
			m.Participants = append(m.Participants, staging.RawParticipant{
				SummonerID:       p.SummonerID,
				SummonerName:     p.SummonerName,
				ChampionID:       p.ChampionID,
				ChampionName:     p.ChampionName,
				TeamID:           p.TeamID,
				Kills:            p.Kills,
				Deaths:           p.Deaths,
				Assists:          p.Assists,
				GoldEarned:       p.GoldEarned,
				TotalDamageDealt: p.TotalDamageDealt,
				VisionScore:      p.VisionScore,
				Win:              p.Win,
			})
		}
		matches = append(matches, m)
	}
	return matches, nil
}
