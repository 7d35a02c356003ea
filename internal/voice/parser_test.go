package voice

import (
	"testing"

	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KnownLocation(t *testing.T) {
	cmd, err := Parse("There's a pothole on Trimbak Highway", nil)

	require.NoError(t, err)
	assert.Equal(t, "pothole", cmd.IssueType)
	assert.Equal(t, "trimbak highway", cmd.Location)
	assert.Equal(t, "There's a pothole on Trimbak Highway", cmd.Description)
	require.NotNil(t, cmd.Coordinates)
	assert.Equal(t, 19.9317, cmd.Coordinates.Lat)
	assert.Equal(t, 73.5316, cmd.Coordinates.Lng)
}

func TestParse_IssueTypes(t *testing.T) {
	tests := []struct {
		transcript string
		issueType  string
	}{
		{"Streetlight not working on College Road", "streetlight"},
		{"Garbage collection issue in Panchavati area", "garbage"},
		{"road damage near satpur", "pothole"},
		{"the traffic signal at ambad is broken", "traffic"},
		{"broken footpath on gangapur road", "sidewalk"},
		{"water leak on sharanpur road", "water"},
		{"blocked drain in panchavati", "sewer"},
		{"fallen tree on nashik road", "tree"},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			cmd, err := Parse(tt.transcript, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.issueType, cmd.IssueType)
		})
	}
}

func TestParse_LongestLocationWins(t *testing.T) {
	cmd, err := Parse("pothole on the mumbai nashik highway", nil)

	require.NoError(t, err)
	assert.Equal(t, "mumbai nashik highway", cmd.Location)
}

func TestParse_FallsBackToCurrentPosition(t *testing.T) {
	position := &Coordinates{Lat: 20.0011, Lng: 73.7622}

	cmd, err := Parse("there is garbage everywhere", position)

	require.NoError(t, err)
	assert.Equal(t, "garbage", cmd.IssueType)
	assert.Equal(t, CurrentLocation, cmd.Location)
	assert.Equal(t, position, cmd.Coordinates)
	assert.NotSame(t, position, cmd.Coordinates)
}

func TestParse_PositionOverridesGazetteerCoordinates(t *testing.T) {
	position := &Coordinates{Lat: 19.93, Lng: 73.53}

	cmd, err := Parse("pothole on trimbak highway", position)

	require.NoError(t, err)
	assert.Equal(t, "trimbak highway", cmd.Location)
	assert.Equal(t, 19.93, cmd.Coordinates.Lat)
}

func TestParse_Unrecognized(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		position   *Coordinates
	}{
		{"empty", "   ", nil},
		{"no issue", "hello there on college road", nil},
		{"no location and no position", "there is a pothole", nil},
		{"no issue with position", "good morning", &Coordinates{Lat: 1, Lng: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.transcript, tt.position)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, models.ErrUnrecognizedCommand)
		})
	}
}
