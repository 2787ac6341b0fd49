package queries

import (
	"fmt"
	"strings"

	"github.com/brendontj/lol-staging/pkg/staging"
)

// Tables names the raw source and the staging relations in one warehouse.
type Tables struct {
	Raw    string
	Models map[staging.Model]string
}

var Postgres = Tables{
	Raw: "etl_raw.lol_ranked_matches",
	Models: map[staging.Model]string{
		staging.ModelMatches:      "staging.stg_lol_ranked_matches",
		staging.ModelParticipants: "staging.stg_lol_participants",
		staging.ModelTeams:        "staging.stg_lol_teams",
	},
}

// SQLite has no schemas, so relations are unqualified.
var SQLite = Tables{
	Raw: "lol_ranked_matches",
	Models: map[staging.Model]string{
		staging.ModelMatches:      "stg_lol_ranked_matches",
		staging.ModelParticipants: "stg_lol_participants",
		staging.ModelTeams:        "stg_lol_teams",
	},
}

func Columns(m staging.Model) []string {
	switch m {
	case staging.ModelMatches:
		return staging.MatchColumns
	case staging.ModelParticipants:
		return staging.ParticipantColumns
	case staging.ModelTeams:
		return staging.TeamColumns
	default:
		return nil
	}
}

func orderKey(m staging.Model) string {
	switch m {
	case staging.ModelParticipants:
		return "match_id, participant_number"
	case staging.ModelTeams:
		return "match_id, team_id"
	default:
		return "match_id"
	}
}

// RawExtractionQuery reads the whole raw snapshot in RawColumns order.
func RawExtractionQuery(t Tables) string {
	return fmt.Sprintf(`SELECT
	%s
FROM %s
ORDER BY match_id;`, strings.Join(staging.RawColumns, ",\n\t"), t.Raw)
}

// ModelQuery reads a staging relation ordered by its key, which makes exports reproducible.
func ModelQuery(t Tables, m staging.Model) string {
	return fmt.Sprintf(`SELECT
	%s
FROM %s
ORDER BY %s;`, strings.Join(Columns(m), ",\n\t"), t.Models[m], orderKey(m))
}

func DeleteModel(t Tables, m staging.Model) string {
	return fmt.Sprintf(`DELETE FROM %s;`, t.Models[m])
}

// InsertStatement builds a positional insert with ? placeholders. Postgres loads go through COPY.
func InsertStatement(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`,
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
}

// Identifier splits schema.table for COPY.
func Identifier(table string) []string {
	return strings.Split(table, ".")
}
