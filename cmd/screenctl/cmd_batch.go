package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devscreen/internal/classifier"
	"devscreen/internal/model"
	"devscreen/internal/service"
)

// confidenceTolerance absorbs two-decimal rounding in hand-written fixtures
const confidenceTolerance = 0.005

// batchFile is the fixture format read by "screenctl batch"
type batchFile struct {
	Cases []batchCase `yaml:"cases"`
}

type batchCase struct {
	Name         string      `yaml:"name"`
	Age          int         `yaml:"age"`
	Domain       string      `yaml:"domain"`
	Observations string      `yaml:"observations"`
	Image        bool        `yaml:"image"`
	Hash         string      `yaml:"hash"`
	Expect       expectation `yaml:"expect"`
}

type expectation struct {
	RiskLevel  model.RiskLevel `yaml:"riskLevel"`
	Confidence *float64        `yaml:"confidence"`
}

func loadBatch(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("%s: no cases", path)
	}
	return &f, nil
}

// check classifies one case and returns its mismatches, if any
func (c *batchCase) check() []string {
	hash := c.Hash
	if hash == "" {
		hash = service.ComputeInputHash(c.Age, c.Domain, c.Observations)
	}
	report := classifier.Classify(c.Age, c.Domain, c.Observations, c.Image, hash)

	var problems []string
	if c.Expect.RiskLevel != "" && report.RiskLevel != c.Expect.RiskLevel {
		problems = append(problems, fmt.Sprintf("riskLevel %s, want %s", report.RiskLevel, c.Expect.RiskLevel))
	}
	if c.Expect.Confidence != nil && math.Abs(report.Confidence-*c.Expect.Confidence) > confidenceTolerance {
		problems = append(problems, fmt.Sprintf("confidence %.2f, want %.2f", report.Confidence, *c.Expect.Confidence))
	}
	return problems
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <cases.yaml>",
		Short: "Classify fixture cases and report mismatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadBatch(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for i := range f.Cases {
				c := &f.Cases[i]
				name := c.Name
				if name == "" {
					name = fmt.Sprintf("case %d", i+1)
				}
				if problems := c.check(); len(problems) > 0 {
					failed++
					for _, p := range problems {
						fmt.Fprintf(out, "FAIL %s: %s\n", name, p)
					}
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", name)
			}

			fmt.Fprintf(out, "%d/%d cases passed\n", len(f.Cases)-failed, len(f.Cases))
			if failed > 0 {
				return fmt.Errorf("%d case(s) failed", failed)
			}
			return nil
		},
	}
}
