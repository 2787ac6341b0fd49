package staging

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

const DefaultSourceTag = "lol_ranked_etl"

// RunMetadata is stamped on every output row as _run_id, _loaded_at and _source.
type RunMetadata struct {
	RunID    uuid.UUID
	LoadedAt time.Time
	Source   string
}

func NewRunMetadata(source string, loadedAt time.Time) RunMetadata {
	if source == "" {
		source = DefaultSourceTag
	}
	return RunMetadata{
		RunID:    uuid.NewV4(),
		LoadedAt: loadedAt.UTC(),
		Source:   source,
	}
}

type MatchRecord struct {
	MatchID                  string
	Region                   *string
	Platform                 string
	QueueID                  *int
	QueueName                string
	Season                   *int
	GameVersion              string
	GameCreation             *time.Time
	GameDuration             *int
	GameMode                 string
	GameType                 string
	MapID                    *int
	Team1Win                 *bool
	Team2Win                 *bool
	WinningTeamID            *int
	GameDurationMinutes      *float64
	MajorPatch               string
	RegionGroup              string
	Participant1SummonerID   *string
	Participant1ChampionName *string
	Participant1KDA          *float64
	RunMetadata
}

type ParticipantRecord struct {
	MatchID              string
	ParticipantNumber    int
	SummonerID           string
	SummonerName         *string
	ChampionID           *int
	ChampionName         *string
	TeamID               *int
	Kills                *int
	Deaths               *int
	Assists              *int
	GoldEarned           *int
	TotalDamageDealt     *int
	VisionScore          *int
	Win                  *bool
	Region               *string
	GameDuration         *int
	KDA                  *float64
	DamagePerGold        *float64
	VisionScorePerMinute *float64
	PerformanceTier      *string
	RunMetadata
}

type TeamRecord struct {
	MatchID              string
	TeamID               int
	SideID               *int
	Region               *string
	GameDuration         *int
	Win                  *bool
	FirstBlood           *bool
	FirstTower           *bool
	FirstInhibitor       *bool
	FirstBaron           *bool
	FirstDragon          *bool
	FirstRiftHerald      *bool
	TowerKills           *int
	InhibitorKills       *int
	BaronKills           *int
	DragonKills          *int
	RiftHeraldKills      *int
	TotalObjectives      *int
	ObjectivesPerMinute  *float64
	FirstObjectivesCount int
	ObjectiveScore       *int
	RunMetadata
}

var metadataColumns = []string{"_run_id", "_loaded_at", "_source"}

var MatchColumns = append([]string{
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
	"team_1_win",
	"team_2_win",
	"winning_team_id",
	"game_duration_minutes",
	"major_patch",
	"region_group",
	"participant_1_summoner_id",
	"participant_1_champion_name",
	"participant_1_kda",
}, metadataColumns...)

var ParticipantColumns = append([]string{
	"match_id",
	"participant_number",
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
	"region",
	"game_duration",
	"kda",
	"damage_per_gold",
	"vision_score_per_minute",
	"performance_tier",
}, metadataColumns...)

var TeamColumns = append([]string{
	"match_id",
	"team_id",
	"side_id",
	"region",
	"game_duration",
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
	"total_objectives",
	"objectives_per_minute",
	"first_objectives_count",
	"objective_score",
}, metadataColumns...)

func (m RunMetadata) values() []interface{} {
	return []interface{}{m.RunID.String(), m.LoadedAt, m.Source}
}

// Values returns the row in MatchColumns order.
func (r MatchRecord) Values() []interface{} {
	return append([]interface{}{
		r.MatchID,
		r.Region,
		r.Platform,
		r.QueueID,
		r.QueueName,
		r.Season,
		r.GameVersion,
		r.GameCreation,
		r.GameDuration,
		r.GameMode,
		r.GameType,
		r.MapID,
		r.Team1Win,
		r.Team2Win,
		r.WinningTeamID,
		r.GameDurationMinutes,
		r.MajorPatch,
		r.RegionGroup,
		r.Participant1SummonerID,
		r.Participant1ChampionName,
		r.Participant1KDA,
	}, r.RunMetadata.values()...)
}

// Values returns the row in ParticipantColumns order.
func (r ParticipantRecord) Values() []interface{} {
	return append([]interface{}{
		r.MatchID,
		r.ParticipantNumber,
		r.SummonerID,
		r.SummonerName,
		r.ChampionID,
		r.ChampionName,
		r.TeamID,
		r.Kills,
		r.Deaths,
		r.Assists,
		r.GoldEarned,
		r.TotalDamageDealt,
		r.VisionScore,
		r.Win,
		r.Region,
		r.GameDuration,
		r.KDA,
		r.DamagePerGold,
		r.VisionScorePerMinute,
		r.PerformanceTier,
	}, r.RunMetadata.values()...)
}

// Values returns the row in TeamColumns order.
func (r TeamRecord) Values() []interface{} {
	return append([]interface{}{
		r.MatchID,
		r.TeamID,
		r.SideID,
		r.Region,
		r.GameDuration,
		r.Win,
		r.FirstBlood,
		r.FirstTower,
		r.FirstInhibitor,
		r.FirstBaron,
		r.FirstDragon,
		r.FirstRiftHerald,
		r.TowerKills,
		r.InhibitorKills,
		r.BaronKills,
		r.DragonKills,
		r.RiftHeraldKills,
		r.TotalObjectives,
		r.ObjectivesPerMinute,
		r.FirstObjectivesCount,
		r.ObjectiveScore,
	}, r.RunMetadata.values()...)
}
