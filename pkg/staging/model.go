package staging

import (
	"path"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type Model string

const (
	ModelMatches      Model = "stg_lol_ranked_matches"
	ModelParticipants Model = "stg_lol_participants"
	ModelTeams        Model = "stg_lol_teams"
)

// unknownKey buckets matches with a missing region or season in Summary.
const unknownKey = "unknown"

var ErrEmptySelection = errors.New("selection matches no model")

// Models lists every staging relation in build order.
func Models() []Model {
	return []Model{ModelMatches, ModelParticipants, ModelTeams}
}

func ParseModel(name string) (Model, error) {
	for _, m := range Models() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown model %q", name)
}

// Selection picks models by name or glob pattern (stg_lol_t*). An empty Include selects all.
type Selection struct {
	Include []string `json:"select" validate:"dive,required,max=128"`
	Exclude []string `json:"exclude" validate:"dive,required,max=128"`
}

var validate = validator.New()

func (s Selection) Resolve() ([]Model, error) {
	if err := validate.Struct(s); err != nil {
		return nil, errors.Wrap(err, "invalid selection")
	}

	included := make(map[Model]bool)
	if len(s.Include) == 0 {
		for _, m := range Models() {
			included[m] = true
		}
	}
	for _, pattern := range s.Include {
		matched, err := matchModels(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matched {
			included[m] = true
		}
	}
	for _, pattern := range s.Exclude {
		matched, err := matchModels(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matched {
			delete(included, m)
		}
	}

	if len(included) == 0 {
		return nil, ErrEmptySelection
	}

	order := make(map[Model]int)
	for i, m := range Models() {
		order[m] = i
	}
	models := make([]Model, 0, len(included))
	for m := range included {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return order[models[i]] < order[models[j]] })
	return models, nil
}

func matchModels(pattern string) ([]Model, error) {
	var matched []Model
	for _, m := range Models() {
		ok, err := path.Match(pattern, string(m))
		if err != nil {
			return nil, errors.Wrapf(err, "bad model pattern %q", pattern)
		}
		if ok {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		return nil, errors.Errorf("unknown model %q", pattern)
	}
	return matched, nil
}

// Summary counts a snapshot by region, queue and season.
type Summary struct {
	Matches  int            `json:"matches"`
	ByRegion map[string]int `json:"by_region"`
	ByQueue  map[string]int `json:"by_queue"`
	BySeason map[string]int `json:"by_season"`
}

func Summarize(matches []RawMatch) Summary {
	s := Summary{
		Matches:  len(matches),
		ByRegion: make(map[string]int),
		ByQueue:  make(map[string]int),
		BySeason: make(map[string]int),
	}
	for _, m := range matches {
		region := unknownKey
		if m.Region != nil {
			region = *m.Region
		}
		s.ByRegion[region]++
		s.ByQueue[m.QueueName]++
		season := unknownKey
		if m.Season != nil {
			season = strconv.Itoa(*m.Season)
		}
		s.BySeason[season]++
	}
	return s
}
