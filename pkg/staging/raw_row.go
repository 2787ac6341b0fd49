package staging

import (
	"fmt"
	"time"
)

var teamColumnSuffixes = []string{
	"team_id",
	"win",
	"first_blood",
	"first_tower",
	"first_inhibitor",
	"first_baron",
	"first_dragon",
	"first_rift_herald",
	"tower_kills",
	"inhibitor_kills",
	"baron_kills",
	"dragon_kills",
	"rift_herald_kills",
}

var participantColumnSuffixes = []string{
	"summoner_id",
	"summoner_name",
	"champion_id",
	"champion_name",
	"team_id",
	"kills",
	"deaths",
	"assists",
	"gold_earned",
	"total_damage_dealt",
	"vision_score",
	"win",
}

// RawColumns is the wide layout of etl_raw.lol_ranked_matches, matching the upstream CSV export.
var RawColumns = rawColumns()

func rawColumns() []string {
	cols := []string{
		"match_id",
		"region",
		"platform",
		"queue_id",
		"queue_name",
		"season",
		"game_version",
		"game_creation",
		"game_duration",
		"game_mode",
		"game_type",
		"map_id",
	}
	for i := 1; i <= 2; i++ {
		for _, suffix := range teamColumnSuffixes {
			cols = append(cols, fmt.Sprintf("team_%d_%s", i, suffix))
		}
	}
	for _, suffix := range participantColumnSuffixes {
		cols = append(cols, "participant_1_"+suffix)
	}
	return cols
}

type rawTeamRow struct {
	sideID, towerKills, inhibitorKills, baronKills, dragonKills, riftHeraldKills *int

	win, firstBlood, firstTower, firstInhibitor, firstBaron, firstDragon, firstRiftHerald *bool
}

type rawParticipantRow struct {
	summonerID, summonerName, championName *string

	championID, teamID, kills, deaths, assists, goldEarned, totalDamageDealt, visionScore *int

	win *bool
}

// RawRow receives one wide row where every column may be NULL. Targets are handed to
// a row scanner (or a CSV decoder) and Match folds the result into a RawMatch.
type RawRow struct {
	matchID, region, platform, queueName, gameVersion, gameMode, gameType *string

	queueID, season, gameDuration, mapID *int
	gameCreation                         *time.Time

	teams       [2]rawTeamRow
	participant rawParticipantRow
}

// Targets returns pointers in RawColumns order. Every target is a pointer to a pointer
// (**string, **int, **bool, **time.Time) so NULL leaves it nil.
func (r *RawRow) Targets() []interface{} {
	targets := []interface{}{
		&r.matchID,
		&r.region,
		&r.platform,
		&r.queueID,
		&r.queueName,
		&r.season,
		&r.gameVersion,
		&r.gameCreation,
		&r.gameDuration,
		&r.gameMode,
		&r.gameType,
		&r.mapID,
	}
	for i := range r.teams {
		t := &r.teams[i]
		targets = append(targets,
			&t.sideID,
			&t.win,
			&t.firstBlood,
			&t.firstTower,
			&t.firstInhibitor,
			&t.firstBaron,
			&t.firstDragon,
			&t.firstRiftHerald,
			&t.towerKills,
			&t.inhibitorKills,
			&t.baronKills,
			&t.dragonKills,
			&t.riftHeraldKills,
		)
	}
	p := &r.participant
	return append(targets,
		&p.summonerID,
		&p.summonerName,
		&p.championID,
		&p.championName,
		&p.teamID,
		&p.kills,
		&p.deaths,
		&p.assists,
		&p.goldEarned,
		&p.totalDamageDealt,
		&p.visionScore,
		&p.win,
	)
}

// Match converts the scanned row. Numeric NULLs stay nil; a participant is attached only
// when at least one participant_1_* column is set.
func (r *RawRow) Match() RawMatch {
	m := RawMatch{
		MatchID:      str(r.matchID),
		Region:       r.region,
		Platform:     str(r.platform),
		QueueID:      r.queueID,
		QueueName:    str(r.queueName),
		Season:       r.season,
		GameVersion:  str(r.gameVersion),
		GameCreation: r.gameCreation,
		GameDuration: r.gameDuration,
		GameMode:     str(r.gameMode),
		GameType:     str(r.gameType),
		MapID:        r.mapID,
	}
	for i, t := range r.teams {
		m.Teams[i] = RawTeam{
			SideID:          t.sideID,
			Win:             t.win,
			FirstBlood:      t.firstBlood,
			FirstTower:      t.firstTower,
			FirstInhibitor:  t.firstInhibitor,
			FirstBaron:      t.firstBaron,
			FirstDragon:     t.firstDragon,
			FirstRiftHerald: t.firstRiftHerald,
			TowerKills:      t.towerKills,
			InhibitorKills:  t.inhibitorKills,
			BaronKills:      t.baronKills,
			DragonKills:     t.dragonKills,
			RiftHeraldKills: t.riftHeraldKills,
		}
	}

	if p := r.participant; p.present() {
		m.Participants = []RawParticipant{{
			SummonerID:       p.summonerID,
			SummonerName:     p.summonerName,
			ChampionID:       p.championID,
			ChampionName:     p.championName,
			TeamID:           p.teamID,
			Kills:            p.kills,
			Deaths:           p.deaths,
			Assists:          p.assists,
			GoldEarned:       p.goldEarned,
			TotalDamageDealt: p.totalDamageDealt,
			VisionScore:      p.visionScore,
			Win:              p.win,
		}}
	}
	return m
}

func (p rawParticipantRow) present() bool {
	return p.summonerID != nil || p.summonerName != nil || p.championName != nil ||
		p.championID != nil || p.teamID != nil || p.kills != nil || p.deaths != nil ||
		p.assists != nil || p.goldEarned != nil || p.totalDamageDealt != nil ||
		p.visionScore != nil || p.win != nil
}

// Values returns the match in RawColumns order, the inverse of RawRow.
func (m RawMatch) Values() []interface{} {
	values := []interface{}{
		m.MatchID,
		m.Region,
		m.Platform,
		m.QueueID,
		m.QueueName,
		m.Season,
		m.GameVersion,
		m.GameCreation,
		m.GameDuration,
		m.GameMode,
		m.GameType,
		m.MapID,
	}
	for _, t := range m.Teams {
		values = append(values,
			t.SideID,
			t.Win,
			t.FirstBlood,
			t.FirstTower,
			t.FirstInhibitor,
			t.FirstBaron,
			t.FirstDragon,
			t.FirstRiftHerald,
			t.TowerKills,
			t.InhibitorKills,
			t.BaronKills,
			t.DragonKills,
			t.RiftHeraldKills,
		)
	}

	p, ok := m.FirstParticipant()
	if !ok {
		for range participantColumnSuffixes {
			values = append(values, nil)
		}
		return values
	}
	return append(values,
		p.SummonerID,
		p.SummonerName,
		p.ChampionID,
		p.ChampionName,
		p.TeamID,
		p.Kills,
		p.Deaths,
		p.Assists,
		p.GoldEarned,
		p.TotalDamageDealt,
		p.VisionScore,
		p.Win,
	)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
