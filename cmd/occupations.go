package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spigell/visa-assessor/internal/logger"
	"github.com/spigell/visa-assessor/internal/occupations"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var occupationsCmd = &cobra.Command{
	Use:   "occupations",
	Short: "List or search the critical skills list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		list, err := occupations.Load(config.OccupationsFile)
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		asJSON, _ := cmd.Flags().GetBool("output-json")

		entries := list.Search(search)
		logger.Debug("searching the critical skills list",
			zap.String("search", search),
			zap.Int("found", len(entries)),
			zap.String("source", list.Source()),
		)

		if asJSON {
			return writeEntriesJSON(os.Stdout, entries)
		}
		return writeEntries(os.Stdout, entries)
	},
}

func init() {
	rootCmd.AddCommand(occupationsCmd)

	occupationsCmd.Flags().StringP("search", "s", "", "filter by occupation name or OFO code")
	occupationsCmd.Flags().Bool("output-json", false, "print entries as json")
}

func writeEntries(w io.Writer, entries []occupations.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tOCCUPATION\tMIN NQF")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Code, e.Name, e.MinLevel)
	}
	return tw.Flush()
}

func writeEntriesJSON(w io.Writer, entries []occupations.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
