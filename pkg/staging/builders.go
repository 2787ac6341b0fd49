package staging

// BuildMatchRecord never drops a match; incomplete rows pass through with null derivations.
func BuildMatchRecord(m RawMatch, meta RunMetadata) MatchRecord {
	record := MatchRecord{
		MatchID:             m.MatchID,
		Region:              m.Region,
		Platform:            m.Platform,
		QueueID:             m.QueueID,
		QueueName:           m.QueueName,
		Season:              m.Season,
		GameVersion:         m.GameVersion,
		GameCreation:        m.GameCreation,
		GameDuration:        m.GameDuration,
		GameMode:            m.GameMode,
		GameType:            m.GameType,
		MapID:               m.MapID,
		Team1Win:            m.Teams[0].Win,
		Team2Win:            m.Teams[1].Win,
		WinningTeamID:       WinningTeamID(m.Teams[0].Win, m.Teams[1].Win),
		GameDurationMinutes: m.GameDurationMinutes(),
		MajorPatch:          MajorPatch(m.GameVersion),
		RegionGroup:         RegionGroup(m.Region),
		RunMetadata:         meta,
	}

	if p, ok := m.FirstParticipant(); ok {
		record.Participant1SummonerID = p.SummonerID
		record.Participant1ChampionName = p.ChampionName
		record.Participant1KDA = p.KDA()
	}
	return record
}

func BuildMatchRecords(matches []RawMatch, meta RunMetadata) []MatchRecord {
	records := make([]MatchRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, BuildMatchRecord(m, meta))
	}
	return records
}

// BuildParticipantRecord returns false when the match has no participant with a summoner id.
// Only participant_1 is staged; further participants are ignored until the source carries them.
func BuildParticipantRecord(m RawMatch, meta RunMetadata) (ParticipantRecord, bool) {
	p, ok := m.FirstParticipant()
	if !ok || p.SummonerID == nil {
		return ParticipantRecord{}, false
	}

	return ParticipantRecord{
		MatchID:              m.MatchID,
		ParticipantNumber:    1,
		SummonerID:           *p.SummonerID,
		SummonerName:         p.SummonerName,
		ChampionID:           p.ChampionID,
		ChampionName:         p.ChampionName,
		TeamID:               p.TeamID,
		Kills:                p.Kills,
		Deaths:               p.Deaths,
		Assists:              p.Assists,
		GoldEarned:           p.GoldEarned,
		TotalDamageDealt:     p.TotalDamageDealt,
		VisionScore:          p.VisionScore,
		Win:                  p.Win,
		Region:               m.Region,
		GameDuration:         m.GameDuration,
		KDA:                  p.KDA(),
		DamagePerGold:        DamagePerGold(p.TotalDamageDealt, p.GoldEarned),
		VisionScorePerMinute: PerMinute(p.VisionScore, m.GameDuration, 2),
		PerformanceTier:      p.PerformanceTier(),
		RunMetadata:          meta,
	}, true
}

func BuildParticipantRecords(matches []RawMatch, meta RunMetadata) []ParticipantRecord {
	records := make([]ParticipantRecord, 0, len(matches))
	for _, m := range matches {
		if record, ok := BuildParticipantRecord(m, meta); ok {
			records = append(records, record)
		}
	}
	return records
}

func BuildTeamRecord(m RawMatch, teamID int, meta RunMetadata) TeamRecord {
	t := m.Teams[teamID-1]
	total := t.TotalObjectives()
	return TeamRecord{
		MatchID:              m.MatchID,
		TeamID:               teamID,
		SideID:               t.SideID,
		Region:               m.Region,
		GameDuration:         m.GameDuration,
		Win:                  t.Win,
		FirstBlood:           t.FirstBlood,
		FirstTower:           t.FirstTower,
		FirstInhibitor:       t.FirstInhibitor,
		FirstBaron:           t.FirstBaron,
		FirstDragon:          t.FirstDragon,
		FirstRiftHerald:      t.FirstRiftHerald,
		TowerKills:           t.TowerKills,
		InhibitorKills:       t.InhibitorKills,
		BaronKills:           t.BaronKills,
		DragonKills:          t.DragonKills,
		RiftHeraldKills:      t.RiftHeraldKills,
		TotalObjectives:      total,
		ObjectivesPerMinute:  PerMinute(total, m.GameDuration, 3),
		FirstObjectivesCount: t.FirstObjectivesCount(),
		ObjectiveScore:       t.ObjectiveScore(),
		RunMetadata:          meta,
	}
}

// BuildTeamRecords emits exactly two rows per match: team 1 then team 2.
func BuildTeamRecords(matches []RawMatch, meta RunMetadata) []TeamRecord {
	records := make([]TeamRecord, 0, 2*len(matches))
	for _, m := range matches {
		records = append(records, BuildTeamRecord(m, 1, meta), BuildTeamRecord(m, 2, meta))
	}
	return records
}
