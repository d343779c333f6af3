package main

import (
	"encoding/json"

	"github.com/godilite/eval-server/internal/scoring"
	"github.com/spf13/cobra"
)

var presetCmd = &cobra.Command{
	Use:   "preset <scale> <item-type>",
	Short: "Print the scoring preset of a scale as JSON",
	Long:  "Print the rubric generated for a scale (5grade, 5point, 10point, 100point, 3level, likert5) and item type (정량/정성 or quantitative/qualitative).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := scoring.ParseScaleID(args[0])
		if err != nil {
			return err
		}
		itemType, err := scoring.ParseItemType(args[1])
		if err != nil {
			return err
		}
		rubric, err := scoring.GeneratePreset(id, itemType)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rubric)
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
}
