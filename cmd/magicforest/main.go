// Command magicforest is the CLI front end for the magicforest detector,
// a cobra command tree with identify/check/list subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gomime/magicforest/internal/config"
	"github.com/gomime/magicforest/internal/logging"
	"github.com/gomime/magicforest/internal/magic"
	"github.com/gomime/magicforest/pkg/magicforest"
)

var (
	ruleFiles      []string
	enableFallback bool
	brief          bool
)

func main() {
	root := &cobra.Command{
		Use:   "magicforest",
		Short: "Identify file types by magic-byte matching",
	}
	root.PersistentFlags().StringSliceVarP(&ruleFiles, "magic-file", "m", nil, "additional magic rule file (repeatable)")
	root.PersistentFlags().BoolVar(&enableFallback, "fallback", true, "fall back to content-sniffing when no rule matches")

	root.AddCommand(identifyCmd(), checkCmd(), listCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func identifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify [paths...]",
		Short: "Print the detected MIME type for one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			det, err := newDetector(cfg)
			if err != nil {
				return err
			}
			status := 0
			for _, path := range args {
				result, err := det.IdentifyFile(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					status = 1
					continue
				}
				if brief || len(args) == 1 {
					fmt.Println(result.MimeType)
				} else {
					fmt.Printf("%s: %s\n", path, result.MimeType)
				}
			}
			if status != 0 {
				os.Exit(status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&brief, "brief", "b", false, "omit the filename from the output")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [rule-files...]",
		Short: "Compile rule files and report diagnostics without matching anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler := magic.NewCompiler()
			clean := true
			for _, path := range args {
				_, diags, err := compiler.CompileFile(path)
				if err != nil {
					return err
				}
				for _, d := range diags {
					clean = false
					fmt.Println(d.Error())
				}
			}
			if !clean {
				os.Exit(1)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [rule-files...]",
		Short: "Print every compiled rule as offset/type/test/mime",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler := magic.NewCompiler()
			for _, path := range args {
				forest, _, err := compiler.CompileFile(path)
				if err != nil {
					return err
				}
				printForest(forest.Roots, 0)
			}
			return nil
		},
	}
}

func printForest(rules []*magic.Rule, depth int) {
	for _, r := range rules {
		prefix := ""
		for i := 0; i < depth; i++ {
			prefix += ">"
		}
		fmt.Printf("%s%d\t%s\t%s\t%s\n", prefix, r.Offset, r.Kind, r.Operator, r.MimeType)
		printForest(r.Children, depth+1)
	}
}

func newDetector(cfg *config.Config) (*magicforest.Detector, error) {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	files := append(append([]string{}, cfg.RuleFiles...), ruleFiles...)
	return magicforest.NewWithOptions(magicforest.Options{
		RuleFiles:       files,
		EnableFallback:  enableFallback,
		Mode:            magic.ParseMatchMode(cfg.MatchMode),
		DefaultMimeType: cfg.DefaultUnknownMime,
		Logger:          log,
	})
}
