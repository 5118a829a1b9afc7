// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Command sroiq is the CLI driver for the SROIQ(D) reasoner: it loads
// an ontology from a line-oriented axiom script (or a saved dump),
// answers consistency/classification queries, runs query scripts, and
// prints the classified taxonomy.
//
// Exit codes: 0 success, 1 inconsistent ontology, 2 user error, 3
// internal error.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-air/sroiq/cmd/sroiq/script"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/kb"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/persist"
)

const (
	exitOK = iota
	exitInconsistent
	exitUserError
	exitInternal
)

var (
	flagOntology string
	flagDump     string
	flagConfig   string
)

func main() {
	root := &cobra.Command{
		Use:           "sroiq",
		Short:         "A SROIQ(D) description-logic reasoner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagOntology, "ontology", "o", "", "axiom script declaring the ontology")
	root.PersistentFlags().StringVar(&flagDump, "from-dump", "", "load the ontology from a saved dump instead of a script")
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML options file")

	root.AddCommand(checkCmd(), classifyCmd(), taxonomyCmd(), queryCmd(), dumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sroiq:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failure to the documented exit codes. An unknown
// (untyped) error is an internal one: every user-caused failure comes
// out of the core as a *kberr.Error.
func exitCode(err error) int {
	var ke *kberr.Error
	if !errors.As(err, &ke) {
		return exitInternal
	}
	switch ke.Kind {
	case kberr.Inconsistent, kberr.RoleBoxInconsistency:
		return exitInconsistent
	case kberr.SyntaxError, kberr.UndefinedName, kberr.DatatypeMisuse,
		kberr.SaveLoadError, kberr.NotClassified:
		return exitUserError
	default:
		return exitInternal
	}
}

// newKB builds the KB from the persistent flags: config first, then
// the ontology source (script or dump).
func newKB() (*kb.KB, error) {
	opts, err := loadOptions(flagConfig)
	if err != nil {
		return nil, kberr.Wrap(kberr.SyntaxError, "options", err)
	}
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return nil, kberr.Wrap(kberr.SyntaxError, "options", err)
	}
	k := kb.New(kb.WithLogger(logger))

	switch {
	case flagDump != "" && flagOntology != "":
		return nil, kberr.New(kberr.SyntaxError, "--ontology and --from-dump are mutually exclusive")
	case flagDump != "":
		f, err := os.Open(flagDump)
		if err != nil {
			return nil, kberr.Wrap(kberr.SaveLoadError, "open dump", err)
		}
		defer f.Close()
		if err := persist.Load(f, k); err != nil {
			return nil, err
		}
	case flagOntology != "":
		if err := script.New(k, os.Stdout).ExecFile(flagOntology); err != nil {
			return nil, err
		}
	default:
		return nil, kberr.New(kberr.SyntaxError, "an ontology is required: pass --ontology or --from-dump")
	}
	return k, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log_level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the ontology for consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := newKB()
			if err != nil {
				return err
			}
			ok, err := k.IsConsistent()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("inconsistent")
				return kberr.New(kberr.Inconsistent, "ontology is inconsistent")
			}
			fmt.Println("consistent")
			return nil
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Classify the ontology's named concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := newKB()
			if err != nil {
				return err
			}
			if err := k.ClassifyKB(); err != nil {
				return err
			}
			fmt.Println(k.Status())
			return nil
		},
	}
}

func taxonomyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "Classify and print the subsumption taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := newKB()
			if err != nil {
				return err
			}
			if err := k.ClassifyKB(); err != nil {
				return err
			}
			return printTaxonomy(k)
		},
	}
}

// printTaxonomy walks the classified DAG top-down, indenting children
// under their first-printed parent. Concepts with multiple parents
// appear once, under whichever parent the walk reaches first.
func printTaxonomy(k *kb.KB) error {
	seen := map[*entity.Named]bool{}
	var walk func(c *entity.Named, depth int) error
	walk = func(c *entity.Named, depth int) error {
		if seen[c] {
			return nil
		}
		seen[c] = true
		eqs, err := k.GetEquivalents(c)
		if err != nil {
			return err
		}
		names := make([]string, len(eqs))
		for i, e := range eqs {
			names[i] = e.Name
		}
		sort.Strings(names)
		for i := 0; i < depth; i++ {
			fmt.Print("  ")
		}
		for i, n := range names {
			if i > 0 {
				fmt.Print(" = ")
			}
			fmt.Print(n)
		}
		fmt.Println()
		children, err := k.GetChildren(c)
		if err != nil {
			return err
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		for _, ch := range children {
			if err := walk(ch.Resolve(), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(k.TopConcept(), 0)
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <script>",
		Short: "Run a query script against the ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := newKB()
			if err != nil {
				return err
			}
			return script.New(k, os.Stdout).ExecFile(args[0])
		},
	}
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <out>",
		Short: "Save the loaded ontology to a dump file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := newKB()
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return kberr.Wrap(kberr.SaveLoadError, "create dump", err)
			}
			if err := persist.Save(f, k); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}
