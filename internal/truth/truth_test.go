package truth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/outcome"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/truth"
	"github.com/stretchr/testify/require"
)

func intPtr(value int) *int {
	return &value
}

func decodedFixture() *decoder.DecodedMatch {
	return &decoder.DecodedMatch{
		Players: []decoder.PlayerSummary{
			{
				PlayerRecord: replay.PlayerRecord{EntityID: 50100, Name: "ShadowBlade"},
				HeroName:     "SAW", Kills: 5, Deaths: 2,
			},
			{
				PlayerRecord: replay.PlayerRecord{EntityID: 50101, Name: "night owl"},
				Kills:        1, Deaths: 4,
			},
		},
		Outcome: outcome.Verdict{Decided: true, Winner: replay.TeamLeft},
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	overlay, errLoad := truth.Load(t.TempDir(), "deadbeef")
	require.NoError(t, errLoad)
	require.Nil(t, overlay)

	overlay, errLoad = truth.Load("", "deadbeef")
	require.NoError(t, errLoad)
	require.Nil(t, overlay)
}

func TestLoadAndApply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payload := `{
		"match_id": "deadbeef",
		"winner": "left",
		"players": [
			{"name": "shadowblade", "hero": "SAW", "kills": 5, "deaths": 3},
			{"name": "NightOwl", "hero": "Celeste"},
			{"name": "nobody", "hero": "Krul"}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deadbeef.json"), []byte(payload), 0o600))

	overlay, errLoad := truth.Load(dir, "deadbeef")
	require.NoError(t, errLoad)
	require.NotNil(t, overlay)

	decoded := decodedFixture()
	report := truth.Apply(decoded, overlay)

	require.Equal(t, 2, report.MatchedPlayers)
	require.Equal(t, []string{"nobody"}, report.UnmatchedPlayers)
	require.Equal(t, 1, report.DeathMismatches, "deaths 2 vs 3 must be flagged")
	require.Zero(t, report.KillMismatches)
	require.True(t, report.WinnerKnown)
	require.True(t, report.WinnerAgrees)

	// Unresolved hero is filled in; the decoded SAW entry is untouched.
	require.Equal(t, 1, report.HeroFilled)
	require.Equal(t, "Celeste", decoded.Players[1].HeroName)
	require.Equal(t, "SAW", decoded.Players[0].HeroName)
}

func TestApplyNeverOverridesDecoded(t *testing.T) {
	t.Parallel()

	decoded := decodedFixture()
	overlay := &truth.MatchTruth{
		Players: []truth.PlayerTruth{
			{Name: "ShadowBlade", Hero: "Krul", Kills: intPtr(99)},
		},
	}

	report := truth.Apply(decoded, overlay)
	require.Equal(t, "SAW", decoded.Players[0].HeroName)
	require.Equal(t, 5, decoded.Players[0].Kills)
	require.Equal(t, 1, report.HeroMismatches)
	require.Equal(t, 1, report.KillMismatches)
}

func TestApplyNilOverlay(t *testing.T) {
	t.Parallel()

	decoded := decodedFixture()
	report := truth.Apply(decoded, nil)
	require.Zero(t, report.MatchedPlayers)
}
