package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/ppi-network-service/pkg/config"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/parser"
)

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var source string
	var top int
	var asJSON bool
	var saveEdges string
	var showEdges bool

	cmd := &cobra.Command{
		Use:   "analyze [protein-id]",
		Short: "Fetch one protein's interactions and print its centrality tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newAnalysisService(cfg)
			report, err := svc.Analyze(cmd.Context(), args[0], source)
			out := cmd.OutOrStdout()

			if err == nil && saveEdges != "" {
				if saveErr := parser.SaveEdgeListFile(report.Interactions, saveEdges); saveErr != nil {
					return fmt.Errorf("saving edge list: %w", saveErr)
				}
			}

			if report != nil {
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(report); encErr != nil {
						return encErr
					}
				} else {
					printReport(out, report, top, showEdges)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", string(models.SourceBioGRID), "Interaction database: biogrid or string")
	cmd.Flags().IntVar(&top, "top", 10, "Rows per centrality table (0 prints all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().StringVar(&saveEdges, "save-edges", "", "Also write the fetched interactions to this edge list file")
	cmd.Flags().BoolVar(&showEdges, "edges", false, "Print the interaction table")
	return cmd
}

func newScoreCmd(cfg *config.Config) *cobra.Command {
	var top int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score [edge-list-file]",
		Short: "Print centrality tables for a local edge list without contacting a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edges, err := parser.ReadEdgeListFile(args[0])
			if err != nil {
				return err
			}

			resp := newAnalysisService(cfg).Centrality(cmd.Context(), edges)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			fmt.Fprintf(out, "%s: %d proteins, %d edges\n", args[0], resp.NodeCount, resp.EdgeCount)
			for _, d := range resp.Diagnostics {
				fmt.Fprintf(out, "diagnostic: %s\n", d)
			}
			for _, m := range models.Measures {
				if scores, ok := resp.Centralities[m]; ok && len(scores) > 0 {
					printTable(out, m, rank(scores), top)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Rows per centrality table (0 prints all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scores as JSON")
	return cmd
}

func printReport(out io.Writer, report *models.AnalysisReport, top int, showEdges bool) {
	fmt.Fprintf(out, "%s interactions for %s: %d (%d proteins, %d edges)\n",
		report.Source.DisplayName(), report.Identifier, len(report.Interactions), report.NodeCount, report.EdgeCount)

	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, d := range report.Diagnostics {
		fmt.Fprintf(out, "diagnostic: %s\n", d)
	}
	if report.NodeCount == 0 {
		return
	}

	if showEdges {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROTEIN A\tPROTEIN B")
		for _, e := range report.Interactions {
			fmt.Fprintf(tw, "%s\t%s\n", e.ProteinA, e.ProteinB)
		}
		tw.Flush()
	}

	for _, m := range models.Measures {
		if rows, ok := report.Rankings[m]; ok {
			printTable(out, m, rows, top)
		}
	}
}

func printTable(out io.Writer, m models.Measure, rows []models.NodeScore, top int) {
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	fmt.Fprintf(out, "\n%s\n", m)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPROTEIN\tSCORE")
	for i, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.6f\n", i+1, row.Protein, row.Score)
	}
	tw.Flush()
}

// rank orders scores descending, ties by protein symbol
func rank(scores map[models.ProteinIdentifier]float64) []models.NodeScore {
	rows := make([]models.NodeScore, 0, len(scores))
	for p, s := range scores {
		rows = append(rows, models.NodeScore{Protein: p, Score: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Protein < rows[j].Protein
	})
	return rows
}
