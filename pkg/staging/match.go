package staging

import "time"

// RawMatch is one record of etl_raw.lol_ranked_matches. The wide team_1_*/team_2_* and
// participant_1_* columns are carried as nested sub-records.
type RawMatch struct {
	MatchID      string
	Region       *string
	Platform     string
	QueueID      *int
	QueueName    string
	Season       *int
	GameVersion  string
	GameCreation *time.Time
	GameDuration *int
	GameMode     string
	GameType     string
	MapID        *int
	Teams        [2]RawTeam
	Participants []RawParticipant
}

// RawTeam count fields are nil when the export left them empty. Derivations that need a
// missing count are nil as well; nothing is filled with zero.
type RawTeam struct {
	SideID          *int
	Win             *bool
	FirstBlood      *bool
	FirstTower      *bool
	FirstInhibitor  *bool
	FirstBaron      *bool
	FirstDragon     *bool
	FirstRiftHerald *bool
	TowerKills      *int
	InhibitorKills  *int
	BaronKills      *int
	DragonKills     *int
	RiftHeraldKills *int
}

type RawParticipant struct {
	SummonerID       *string
	SummonerName     *string
	ChampionID       *int
	ChampionName     *string
	TeamID           *int
	Kills            *int
	Deaths           *int
	Assists          *int
	GoldEarned       *int
	TotalDamageDealt *int
	VisionScore      *int
	Win              *bool
}

// FirstParticipant returns participant_1 of the flat export, if any.
func (m RawMatch) FirstParticipant() (RawParticipant, bool) {
	if len(m.Participants) == 0 {
		return RawParticipant{}, false
	}
	return m.Participants[0], true
}

func (t RawTeam) counts() ([5]int, bool) {
	var out [5]int
	for i, n := range []*int{t.TowerKills, t.InhibitorKills, t.BaronKills, t.DragonKills, t.RiftHeraldKills} {
		if n == nil {
			return out, false
		}
		out[i] = *n
	}
	return out, true
}

func (t RawTeam) TotalObjectives() *int {
	c, ok := t.counts()
	if !ok {
		return nil
	}
	return intPtr(c[0] + c[1] + c[2] + c[3] + c[4])
}

const (
	towerWeight      = 1
	inhibitorWeight  = 3
	baronWeight      = 5
	dragonWeight     = 2
	riftHeraldWeight = 2
)

func (t RawTeam) ObjectiveScore() *int {
	c, ok := t.counts()
	if !ok {
		return nil
	}
	return intPtr(c[0]*towerWeight +
		c[1]*inhibitorWeight +
		c[2]*baronWeight +
		c[3]*dragonWeight +
		c[4]*riftHeraldWeight)
}

// FirstObjectivesCount counts the "first X" flags that are true. Null flags count as false.
func (t RawTeam) FirstObjectivesCount() int {
	count := 0
	for _, flag := range []*bool{t.FirstBlood, t.FirstTower, t.FirstInhibitor, t.FirstBaron, t.FirstDragon, t.FirstRiftHerald} {
		if flag != nil && *flag {
			count++
		}
	}
	return count
}

func (p RawParticipant) KDA() *float64 {
	if p.Kills == nil || p.Deaths == nil || p.Assists == nil {
		return nil
	}
	return floatPtr(KDA(*p.Kills, *p.Deaths, *p.Assists))
}

func (p RawParticipant) PerformanceTier() *string {
	if p.Kills == nil || p.Deaths == nil || p.Assists == nil {
		return nil
	}
	tier := PerformanceTier(*p.Kills, *p.Deaths, *p.Assists)
	return &tier
}

func (m RawMatch) GameDurationMinutes() *float64 {
	if m.GameDuration == nil {
		return nil
	}
	return floatPtr(GameDurationMinutes(*m.GameDuration))
}
