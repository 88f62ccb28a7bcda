package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devscreen/internal/classifier"
	"devscreen/internal/model"
	"devscreen/internal/service"
)

type inputFlags struct {
	age          int
	domain       string
	observations string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.age, "age", -1, "Child age in months (required)")
	fl.StringVar(&f.domain, "domain", "", "Developmental domain")
	fl.StringVar(&f.observations, "observations", "", "Free-text observations")
	_ = cmd.MarkFlagRequired("age")
}

func (f *inputFlags) validate() error {
	if f.age < 0 || f.age > model.MaxChildAgeMonths {
		return fmt.Errorf("--age must be between 0 and %d", model.MaxChildAgeMonths)
	}
	return nil
}

func (f *inputFlags) hash() string {
	return service.ComputeInputHash(f.age, f.domain, f.observations)
}

func newClassifyCmd() *cobra.Command {
	var in inputFlags
	var imagePath, inputHash string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the deterministic screening report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.validate(); err != nil {
				return err
			}

			hasImage := false
			if imagePath != "" {
				info, err := os.Stat(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				hasImage = info.Size() > 0
			}
			if inputHash == "" {
				inputHash = in.hash()
			}

			out := model.ClassifyResponse{
				InputHash: inputHash,
				Report:    classifier.Classify(in.age, in.domain, in.observations, hasImage, inputHash),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&imagePath, "image", "", "Path to an accompanying image")
	cmd.Flags().StringVar(&inputHash, "hash", "", "Input hash to seed with (computed from the input when omitted)")
	return cmd
}

func newHashCmd() *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the normalized input hash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), in.hash())
			return nil
		},
	}

	in.register(cmd)
	return cmd
}
