package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/photonq/lumen"
	"github.com/photonq/lumen/pkg/circuit"
	"github.com/photonq/lumen/pkg/journal"
	"github.com/photonq/lumen/pkg/logging"
	"github.com/photonq/lumen/pkg/measure"
	"github.com/photonq/lumen/pkg/observable"
	"github.com/photonq/lumen/pkg/state"
)

var (
	dbPath    string
	precision string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "CLI for the lumen state-vector simulator",
	Long:  `Execute quantum circuits, compute observable statistics and browse the run journal.`,
}

var runCmd = &cobra.Command{
	Use:   "run <circuit.json>",
	Short: "Execute a circuit and print its measurement results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCircuit(args[0])
		if err != nil {
			return err
		}

		p, err := parsePrecision(precision)
		if err != nil {
			return err
		}

		config := lumen.Config{Precision: p, JournalPath: dbPath}
		if verbose {
			config.Logger = logging.NewStd(logging.LevelDebug)
		}
		sim, err := lumen.Open(config)
		if err != nil {
			return err
		}
		defer sim.Close()

		out, err := sim.Run(context.Background(), c)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(map[string]any{
				"id":      out.ID,
				"elapsed": out.Elapsed.String(),
				"result":  renderResult(out.Result),
			}, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Run %s (%s)\n", out.ID, out.Elapsed)
		printResult(c, out.Result)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <circuit.json>",
	Short: "Validate a circuit file and print its structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCircuit(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Wires: %d\n", c.Wires)
		fmt.Printf("Shots: %d\n", c.Shots)
		fmt.Printf("Operations (%d):\n", len(c.Operations))
		for i, op := range c.Operations {
			fmt.Printf("  %d. %s\n", i+1, op)
		}
		fmt.Printf("Measurements (%d):\n", len(c.Measurements))
		for i, p := range c.Measurements {
			if obs := p.Observable(); obs != nil {
				fmt.Printf("  %d. %s %s (kind: %s)\n", i+1, p.Kind(), obs, obs.Kind())
			} else {
				fmt.Printf("  %d. %s\n", i+1, p.Kind())
			}
		}
		return nil
	},
}

var expvalCmd = &cobra.Command{
	Use:   "expval <circuit.json>",
	Short: "Execute a circuit and compute one named-operator expectation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCircuit(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		wire, _ := cmd.Flags().GetInt("wire")

		obs, err := namedObservable(name, wire)
		if err != nil {
			return err
		}
		c.Shots = 0
		c.Measurements = []*measure.Process{measure.Expectation(obs)}

		result, err := lumen.Simulate(context.Background(), c)
		if err != nil {
			return fmt.Errorf("expval failed: %w", err)
		}
		fmt.Printf("<%s[%d]> = %.10f\n", name, wire, result.(float64))
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse the run journal",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(runs, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Runs (%d):\n", len(runs))
		for _, r := range runs {
			fmt.Printf("  %s  %s  wires=%d precision=%s elapsed=%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Wires, r.Precision, r.Elapsed)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run with its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetRun(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run: %s\n", run.ID)
		fmt.Printf("  Created: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Wires: %d  Precision: %s  Elapsed: %s\n", run.Wires, run.Precision, run.Elapsed)
		if verbose {
			fmt.Printf("  Circuit: %s\n", run.Circuit)
		}
		fmt.Printf("  Results (%d):\n", len(run.Results))
		for i, res := range run.Results {
			switch {
			case res.Scalar != nil:
				fmt.Printf("    %d. %s = %.10f\n", i+1, res.Kind, *res.Scalar)
			case res.Values != nil:
				fmt.Printf("    %d. %s = %v\n", i+1, res.Kind, res.Values)
			case res.Amplitudes != nil:
				fmt.Printf("    %d. %s = %v\n", i+1, res.Kind, res.Amplitudes)
			}
		}
		return nil
	},
}

func loadCircuit(path string) (*circuit.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit: %w", err)
	}
	var c circuit.Circuit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse circuit: %w", err)
	}
	return &c, nil
}

func parsePrecision(s string) (state.Precision, error) {
	switch strings.ToLower(s) {
	case "single":
		return state.Single, nil
	case "", "double":
		return state.Double, nil
	default:
		return 0, fmt.Errorf("unknown precision %q (single or double)", s)
	}
}

func namedObservable(name string, wire int) (*observable.Observable, error) {
	switch name {
	case "PauliX":
		return observable.PauliX(wire), nil
	case "PauliY":
		return observable.PauliY(wire), nil
	case "PauliZ":
		return observable.PauliZ(wire), nil
	case "Hadamard":
		return observable.Hadamard(wire), nil
	case "Identity":
		return observable.Identity(wire), nil
	default:
		return nil, fmt.Errorf("unknown observable %q", name)
	}
}

func openJournal() (*journal.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("journal path not specified")
	}
	store := journal.Open(dbPath)
	if err := store.Init(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func printResult(c *circuit.Circuit, result any) {
	results, ok := result.([]any)
	if !ok {
		results = []any{result}
	}
	for i, res := range results {
		kind := c.Measurements[i].Kind()
		switch v := res.(type) {
		case float64:
			fmt.Printf("  %d. %s = %.10f\n", i+1, kind, v)
		case []float64:
			fmt.Printf("  %d. %s = %v\n", i+1, kind, v)
		case []complex128:
			fmt.Printf("  %d. %s:\n", i+1, kind)
			for j, a := range v {
				if real(a)*real(a)+imag(a)*imag(a) > 1e-12 {
					fmt.Printf("       |%0*b> %v\n", c.Wires, j, a)
				}
			}
		default:
			fmt.Printf("  %d. %s = %v\n", i+1, kind, v)
		}
	}
}

func renderResult(result any) any {
	switch v := result.(type) {
	case []complex128:
		out := make([][]float64, len(v))
		for i, a := range v {
			out[i] = []float64{real(a), imag(a)}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, r := range v {
			out[i] = renderResult(r)
		}
		return out
	default:
		return v
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Run journal database path")
	rootCmd.PersistentFlags().StringVarP(&precision, "precision", "p", "double", "Amplitude precision (single/double)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	runCmd.Flags().Bool("json", false, "Output as JSON")

	expvalCmd.Flags().String("name", "PauliZ", "Observable name")
	expvalCmd.Flags().Int("wire", 0, "Observable wire")

	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	runsListCmd.Flags().Int("limit", 20, "Maximum runs to list")
	runsListCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		runCmd,
		inspectCmd,
		expvalCmd,
		runsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
