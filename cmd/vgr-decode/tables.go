package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
)

var (
	tablesItems  bool
	tablesHeroes bool

	tablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "Show the static lookup tables",
		Long:  "Print the embedded hero, item and structure tables the decoder resolves against.",
		Args:  cobra.NoArgs,
		RunE:  runTables,
	}
)

func init() { //nolint:gochecknoinits
	tablesCmd.Flags().BoolVar(&tablesItems, "items", false, "List the item candidate tables")
	tablesCmd.Flags().BoolVar(&tablesHeroes, "heroes", false, "List the hero table")
}

func runTables(_ *cobra.Command, _ []string) error {
	tables, errTables := gamedata.Load()
	if errTables != nil {
		return errTables
	}

	fmt.Println(renderTablesSummary(tables)) //nolint:forbidigo

	if tablesHeroes {
		heroes := make([]gamedata.Hero, 0, len(tables.Heroes))
		for _, hero := range tables.Heroes {
			heroes = append(heroes, hero)
		}
		sort.Slice(heroes, func(i, j int) bool { return heroes[i].Code < heroes[j].Code })
		for _, hero := range heroes {
			fmt.Printf("  %4d  %-16s %s\n", hero.Code, hero.Name, hero.Role) //nolint:forbidigo
		}
	}

	if tablesItems {
		printCandidates(tables, gamedata.NamespacePurchase, tables.Purchase)
		printCandidates(tables, gamedata.NamespaceCompletion, tables.Completion)
	}

	return nil
}

func printCandidates(tables *gamedata.Tables, namespace gamedata.Namespace, candidates map[uint16]gamedata.Candidate) {
	fmt.Printf("\n%s namespace:\n", namespace) //nolint:forbidigo

	codes := make([]uint16, 0, len(candidates))
	for code := range candidates {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	for _, code := range codes {
		candidate := candidates[code]
		item := tables.Items[candidate.ItemID]
		fmt.Printf("  %4d  %-24s %s\n", code, item.Name, candidate.Confidence) //nolint:forbidigo
	}
}
