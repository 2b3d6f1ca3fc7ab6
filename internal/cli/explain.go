package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"
)

var explainCmd = &cobra.Command{
	Use:   "explain <command>",
	Short: "Parse a command with a full shell grammar and print its AST",
	Long: `Parses the given command with mvdan.cc/sh/v3's shell grammar (its
default Bash dialect) and prints the resulting statement tree: pipelines, redirects, and
substitutions.

This is a human-facing debugging aid only — it never feeds into the
safety-net's own decision, which deliberately does not implement a full
shell interpreter (the analyzer's tokenizer is intentionally shallow so its
behavior stays simple to reason about).`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	src := args[0]

	parser := syntax.NewParser(syntax.KeepComments(true))
	file, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return fmt.Errorf("command is not valid Bash: %w", err)
	}

	printer := syntax.NewPrinter()
	fmt.Println("Canonical form:")
	if err := printer.Print(os.Stdout, file); err != nil {
		return fmt.Errorf("print AST: %w", err)
	}
	fmt.Println()

	fmt.Println("Statement tree:")
	depth := 0
	syntax.Walk(file, func(node syntax.Node) bool {
		if node == nil {
			depth--
			return false
		}
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), describeNode(node))
		depth++
		return true
	})

	return nil
}

func describeNode(node syntax.Node) string {
	switch n := node.(type) {
	case *syntax.CallExpr:
		parts := make([]string, len(n.Args))
		for i, w := range n.Args {
			parts[i] = wordLit(w)
		}
		return fmt.Sprintf("CallExpr: %s", strings.Join(parts, " "))
	case *syntax.BinaryCmd:
		return fmt.Sprintf("BinaryCmd: %s", n.Op)
	case *syntax.Block:
		return "Block"
	case *syntax.Subshell:
		return "Subshell"
	case *syntax.IfClause:
		return "IfClause"
	case *syntax.WhileClause:
		return "WhileClause"
	case *syntax.ForClause:
		return "ForClause"
	case *syntax.Redirect:
		return fmt.Sprintf("Redirect: %s", n.Op)
	default:
		return fmt.Sprintf("%T", node)
	}
}

func wordLit(w *syntax.Word) string {
	var sb strings.Builder
	printer := syntax.NewPrinter()
	_ = printer.Print(&sb, w)
	return sb.String()
}
