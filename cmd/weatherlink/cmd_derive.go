package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chrissnell/weatherlink/pkg/derived"
	"github.com/spf13/cobra"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive secondary values from one primitive record",
	Long: `Read one JSON primitive record from --input (or stdin) and print every
value derivable from it.`,
	RunE: runDerive,
}

var windAverageCmd = &cobra.Command{
	Use:   "wind-average",
	Short: "Compute the ten-minute average wind from a series of records",
	Long: `Read a chronological JSON array of primitive records from --input (or
stdin) and print the highest ten-minute average wind.`,
	RunE: runWindAverage,
}

var inputPath string

func init() {
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(windAverageCmd)
	deriveCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON input file, - for stdin")
	windAverageCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON input file, - for stdin")
}

func readInput(cmd *cobra.Command, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("error decoding input: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runDerive(cmd *cobra.Command, args []string) error {
	var record derived.Record
	if err := readInput(cmd, &record); err != nil {
		return err
	}
	return printJSON(cmd, derived.CalculateAll(record))
}

func runWindAverage(cmd *cobra.Command, args []string) error {
	var records []derived.Record
	if err := readInput(cmd, &records); err != nil {
		return err
	}

	samples := make([]derived.WindSample, len(records))
	for i, r := range records {
		samples[i] = r.WindSample()
	}
	return printJSON(cmd, derived.TenMinuteWindAverage(samples))
}
