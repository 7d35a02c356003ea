// Package voice turns a free-text speech transcript into a report draft by
// keyword matching against a fixed vocabulary of issue types and a gazetteer
// of known Nashik locations.
package voice

import (
	"sort"
	"strings"

	"github.com/BradenHooton/citypulse/internal/models"
)

// CurrentLocation is the location label used when the caller's own position is used
const CurrentLocation = "current location"

// Coordinates is a WGS84 position in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Command is a transcript understood as a report draft
type Command struct {
	IssueType   string       `json:"issueType"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type issueKeywords struct {
	issueType string
	synonyms  []string
}

// Order matters: the first issue type with a matching synonym wins.
var issueVocabulary = []issueKeywords{
	{"pothole", []string{"pothole", "pot hole", "road damage", "hole in road", "road hole"}},
	{"streetlight", []string{"streetlight", "street light", "light", "lamp post", "street lamp"}},
	{"garbage", []string{"garbage", "trash", "waste", "rubbish", "litter"}},
	{"traffic", []string{"traffic signal", "traffic light", "signal", "traffic"}},
	{"sidewalk", []string{"sidewalk", "footpath", "walkway", "pavement"}},
	{"water", []string{"water leak", "water", "leak", "pipe"}},
	{"sewer", []string{"sewer", "drain", "sewage"}},
	{"tree", []string{"tree", "branch", "fallen tree"}},
	{"street sign", []string{"street sign", "sign", "road sign"}},
}

var gazetteer = map[string]Coordinates{
	"trimbak highway":       {Lat: 19.9317, Lng: 73.5316},
	"nashik road":           {Lat: 19.9975, Lng: 73.7898},
	"mumbai nashik highway": {Lat: 19.9975, Lng: 73.7898},
	"panchavati":            {Lat: 19.9975, Lng: 73.7898},
	"satpur":                {Lat: 19.9975, Lng: 73.7898},
	"ambad":                 {Lat: 19.9975, Lng: 73.7898},
	"gangapur road":         {Lat: 19.9975, Lng: 73.7898},
	"college road":          {Lat: 19.9975, Lng: 73.7898},
	"sharanpur road":        {Lat: 19.9975, Lng: 73.7898},
}

// gazetteerNames is sorted longest first so a place name is never shadowed by a shorter one inside it
var gazetteerNames = func() []string {
	names := make([]string, 0, len(gazetteer))
	for name := range gazetteer {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// Parse extracts an issue type and location from transcript. When no known
// place is mentioned, position (the caller's own location) is used instead.
// Returns models.ErrUnrecognizedCommand when either part is missing.
func Parse(transcript string, position *Coordinates) (*Command, error) {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return nil, models.ErrUnrecognizedCommand
	}

	issueType := matchIssueType(text)
	if issueType == "" {
		return nil, models.ErrUnrecognizedCommand
	}

	cmd := &Command{
		IssueType:   issueType,
		Description: strings.TrimSpace(transcript),
	}

	if name, coords, ok := matchLocation(text); ok {
		cmd.Location = name
		cmd.Coordinates = &coords
	} else if position != nil {
		cmd.Location = CurrentLocation
		p := *position
		cmd.Coordinates = &p
	} else {
		return nil, models.ErrUnrecognizedCommand
	}

	// The caller's own fix is more precise than a gazetteer centroid.
	if position != nil {
		p := *position
		cmd.Coordinates = &p
	}

	return cmd, nil
}

func matchIssueType(text string) string {
	for _, entry := range issueVocabulary {
		for _, synonym := range entry.synonyms {
			if strings.Contains(text, synonym) {
				return entry.issueType
			}
		}
	}
	return ""
}

func matchLocation(text string) (string, Coordinates, bool) {
	for _, name := range gazetteerNames {
		if strings.Contains(text, name) {
			return name, gazetteer[name], true
		}
	}
	return "", Coordinates{}, false
}
