package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brandatlas/footprint/internal/aggregate"
	"github.com/brandatlas/footprint/internal/dataset"
	"github.com/brandatlas/footprint/internal/model"
)

var (
	analyzeLevel    string
	analyzeProvince string
	analyzeTop      int
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print footprint rankings and venue standings without a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		brands, stores, malls, err := loadDatasets()
		if err != nil {
			return err
		}

		level := model.LevelProvince
		switch analyzeLevel {
		case "province":
		case "city":
			level = model.LevelCity
		default:
			return eris.Errorf("unknown level %q, want province or city", analyzeLevel)
		}

		if analyzeProvince != "" {
			stores = dataset.StoreFilter{Province: analyzeProvince}.Apply(stores)
			malls = dataset.MallFilter{Province: analyzeProvince}.Apply(malls)
		}

		rows := aggregate.Ranked(aggregate.ByRegion(stores, level, brands))
		if analyzeTop > 0 && len(rows) > analyzeTop {
			rows = rows[:analyzeTop]
		}
		counts := aggregate.StatusCounts(malls)

		if analyzeJSON {
			out := struct {
				Brands       model.BrandSet       `json:"brands"`
				Level        model.Level          `json:"level"`
				Rows         []aggregate.Stats    `json:"rows"`
				StatusCounts map[model.Status]int `json:"status_counts"`
				Venues       int                  `json:"venues"`
			}{brands, level, rows, counts, len(malls)}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		formatRankings(os.Stdout, brands, level, rows)
		if len(malls) > 0 {
			fmt.Fprintln(os.Stdout)
			formatStatusCounts(os.Stdout, counts, len(malls))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLevel, "level", "province", "aggregation level: province or city")
	analyzeCmd.Flags().StringVar(&analyzeProvince, "province", "", "restrict to one province")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 0, "limit to the top N regions (0 = all)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(analyzeCmd)
}

// formatRankings writes the ranked region table to w.
func formatRankings(out io.Writer, brands model.BrandSet, level model.Level, rows []aggregate.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "REGION\t%s\t%s\tOTHER\tTOTAL\tSHARE\n", brands.Focal.Name, brands.Rival.Name)
	_, _ = fmt.Fprintln(w, "------\t-----\t-----\t-----\t-----\t-----")

	for _, r := range rows {
		region := r.Province
		if level == model.LevelCity {
			region = r.Province + "/" + r.City
		}

		share := "-"
		if s, ok := r.FocalShare(); ok {
			share = fmt.Sprintf("%.0f%%", s*100)
		}

		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			region,
			r.Focal,
			r.Rival,
			r.Total-r.Focal-r.Rival,
			r.Total,
			share,
		)
	}
	_ = w.Flush()
}

// formatStatusCounts writes the venue standing summary to w.
func formatStatusCounts(out io.Writer, counts map[model.Status]int, total int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Venues:\t%d\n", total)
	for _, st := range model.AllStatuses() {
		if counts[st] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", st, counts[st])
	}
	_ = w.Flush()
}
