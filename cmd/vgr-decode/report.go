package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/truth"
)

var (
	leftColor  = lipgloss.Color("#5885A2")
	rightColor = lipgloss.Color("#B8383B")
	grayColor  = lipgloss.Color("245")

	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(grayColor)
	leftStyle   = lipgloss.NewStyle().Foreground(leftColor).Bold(true)
	rightStyle  = lipgloss.NewStyle().Foreground(rightColor).Bold(true)
	cellName    = lipgloss.NewStyle().Padding(0, 1).Width(26)
	cellHero    = lipgloss.NewStyle().Padding(0, 1).Width(16)
	cellNum     = lipgloss.NewStyle().Padding(0, 1).Width(7).Align(lipgloss.Right)
	dimQuality  = lipgloss.NewStyle().Foreground(grayColor)
	warnQuality = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
)

func teamStyle(team replay.Team) lipgloss.Style {
	if team == replay.TeamRight {
		return rightStyle
	}

	return leftStyle
}

func renderMatch(decoded *decoder.DecodedMatch) string {
	var out strings.Builder

	match := decoded.Match
	out.WriteString(titleStyle.Render(fmt.Sprintf("%s on %s", match.Mode, replay.MapName(match.Mode))))
	out.WriteString("\n")
	out.WriteString(labelStyle.Render("  match    ") + match.MatchID.String() + "\n")
	out.WriteString(labelStyle.Render("  duration ") +
		fmt.Sprintf("~%.0fs over %d frames", match.Duration(), len(match.Frames)))
	if match.Partial {
		out.WriteString(warnQuality.Render("  (partial: missing frames)"))
	}
	out.WriteString("\n")

	winner := "undecided"
	if decoded.Outcome.Decided {
		winner = teamStyle(decoded.Outcome.Winner).Render(decoded.Outcome.Winner.String()) +
			fmt.Sprintf(" (core %d down at %.1fs)",
				decoded.Outcome.DestroyedCore, decoded.Outcome.ClusterEnd)
	}
	out.WriteString(labelStyle.Render("  winner   ") + winner + "\n\n")

	header := cellName.Render("Player") + cellHero.Render("Hero") +
		cellNum.Render("K") + cellNum.Render("D") + cellNum.Render("Gold")
	out.WriteString(header + "\n")

	for _, team := range []replay.Team{replay.TeamLeft, replay.TeamRight} {
		for _, player := range decoded.Players {
			if player.Team != team {
				continue
			}
			hero := player.HeroName
			if hero == "" {
				hero = fmt.Sprintf("code %d", player.HeroCode)
			}
			out.WriteString(
				cellName.Inherit(teamStyle(team)).Render(player.Name) +
					cellHero.Render(hero) +
					cellNum.Render(fmt.Sprintf("%d", player.Kills)) +
					cellNum.Render(fmt.Sprintf("%d", player.Deaths)) +
					cellNum.Render(humanize.Commaf(player.GoldSpent)) + "\n")
		}
	}

	out.WriteString("\n" + dimQuality.Render(fmt.Sprintf(
		"  %s records, %s action events, %s skipped, %d desyncs, %d clock rejects",
		humanize.Comma(int64(decoded.Scan.Records)),
		humanize.Comma(int64(decoded.Scan.Actions)),
		humanize.Bytes(uint64(decoded.Scan.SkippedBytes)),
		decoded.Scan.Desyncs, decoded.Discrepancies)))

	return out.String()
}

func renderItems(decoded *decoder.DecodedMatch) string {
	var out strings.Builder

	for _, player := range decoded.Players {
		if len(player.Items) == 0 {
			continue
		}
		out.WriteString(teamStyle(player.Team).Render(player.Name) + "\n")
		for _, entry := range player.Items {
			if !entry.Resolved {
				out.WriteString(warnQuality.Render(fmt.Sprintf(
					"  %7.1fs  unknown code %d (%s)\n",
					entry.Timestamp, entry.Code, entry.Namespace)))

				continue
			}
			quality := ""
			if entry.Confidence != gamedata.ConfidenceConfirmed {
				quality = dimQuality.Render("  (" + entry.Confidence.String() + ")")
			}
			out.WriteString(fmt.Sprintf("  %7.1fs  %s%s\n", entry.Timestamp, entry.ItemName, quality))
		}
	}

	return out.String()
}

func renderTruth(report truth.Report) string {
	var out strings.Builder

	out.WriteString(titleStyle.Render("Ground truth") + "\n")
	out.WriteString(fmt.Sprintf("  matched %d players", report.MatchedPlayers))
	if len(report.UnmatchedPlayers) > 0 {
		out.WriteString(warnQuality.Render(
			", unmatched: " + strings.Join(report.UnmatchedPlayers, ", ")))
	}
	out.WriteString("\n")

	if report.WinnerKnown {
		verdict := "agrees"
		if !report.WinnerAgrees {
			verdict = "DISAGREES"
		}
		out.WriteString("  winner " + verdict + "\n")
	}
	if total := report.KillMismatches + report.DeathMismatches + report.HeroMismatches; total > 0 {
		out.WriteString(warnQuality.Render(fmt.Sprintf(
			"  mismatches: %d kills, %d deaths, %d heroes\n",
			report.KillMismatches, report.DeathMismatches, report.HeroMismatches)))
	}

	return out.String()
}

func renderBatchSummary(decoded int, skipped int, failed int, clockRejects int) string {
	summary := fmt.Sprintf("Decoded %d, skipped %d, failed %d", decoded, skipped, failed)
	if clockRejects > 0 {
		summary += fmt.Sprintf(", %d clock rejects", clockRejects)
	}

	if failed > 0 {
		return warnQuality.Render(summary)
	}

	return summary
}

func renderTablesSummary(tables *gamedata.Tables) string {
	return titleStyle.Render("Static tables "+tables.Version) + "\n" +
		fmt.Sprintf("  %d heroes, %d items, %d purchase codes, %d completion codes, %d mode rosters",
			len(tables.Heroes), len(tables.Items),
			len(tables.Purchase), len(tables.Completion), len(tables.Rosters))
}
