package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagardeyrakesh/sdpattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/pattern"
)

var (
	explainThreshold int
	explainInput     string
	explainInputFile string
)

var explainCmd = &cobra.Command{
	Use:   "explain <pattern>",
	Short: "Compile a pattern and describe the result",
	Long: `Compile a pattern (a built-in name such as credit_card, or a custom shape
such as '\d{3}-\d{2}-\d{4}\V{ssn}') and print the compiled trie's size,
length bounds, validator and fingerprint. With --input or --input-file the
pattern is also evaluated and every counted occurrence is listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().IntVar(&explainThreshold, "threshold", 1, "Occurrences required for a match")
	explainCmd.Flags().StringVar(&explainInput, "input", "", "Buffer to evaluate")
	explainCmd.Flags().StringVar(&explainInputFile, "input-file", "", "File to evaluate")
}

func runExplain(cmd *cobra.Command, args []string) error {
	opt, err := sdpattern.Compile(args[0], sdpattern.WithThreshold(explainThreshold))
	if err != nil {
		return err
	}

	trie := opt.Trie()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pattern:       %s\n", opt.Pattern())
	name := strings.TrimPrefix(opt.Pattern(), pattern.BuiltinPrefix)
	if b, ok, _ := pattern.LookupBuiltin(name); ok {
		fmt.Fprintf(out, "Built-in:      %s\n", b.Description)
		fmt.Fprintf(out, "Shape:         %s\n", b.Shape)
	}
	fmt.Fprintf(out, "Threshold:     %d\n", opt.Threshold())
	fmt.Fprintf(out, "Nodes:         %d\n", trie.NodeCount())
	fmt.Fprintf(out, "Length:        %d..%d\n", trie.MinLength(), trie.MaxLength())
	validator := "none"
	if v := trie.Validator(); v != nil {
		validator = v.Name()
	}
	fmt.Fprintf(out, "Validator:     %s\n", validator)
	guard := "none"
	if !trie.Guard().IsEmpty() {
		guard = trie.Guard().String()
	}
	fmt.Fprintf(out, "Guard:         %s\n", guard)
	fmt.Fprintf(out, "Fingerprint:   %s\n", trie.Fingerprint())
	fmt.Fprintf(out, "Structural ID: %s\n", opt.StructuralID())

	var input []byte
	switch {
	case explainInputFile != "":
		if input, err = os.ReadFile(explainInputFile); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	case explainInput != "":
		input = []byte(explainInput)
	default:
		return nil
	}

	spans := opt.Locate(input, 0)
	fmt.Fprintf(out, "\nVerdict:       %s\n", opt.Evaluate(input))
	fmt.Fprintf(out, "Occurrences:   %d\n", len(spans))
	for _, sp := range spans {
		fmt.Fprintf(out, "  [%d:%d] %q\n", sp.Offset, sp.End(), input[sp.Offset:sp.End()])
	}
	return nil
}
