package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"formulagrid/internal/calc"
	"formulagrid/internal/sheet"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var pretty, plain, sexpr bool
	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Print the value of every non-empty cell",
		Long: `Loads a .csv or .xlsx file (or a redis:// URL) and prints one line per
non-empty cell in column order, "NAME: value". Errors are shown as
#SYNTAX_ERROR or #EVAL_ERROR followed by the message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := opts.newSheet()
			s.Load(cells)
			opts.logger.Debug("evaluating", "file", args[0], "cells", len(cells))

			out := cmd.OutOrStdout()
			tty := isTerminal(out)
			if pretty || (tty && !plain) {
				return writeTable(out, s, sexpr, tty)
			}
			writePlain(out, s, sexpr)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render a table even when not writing to a terminal")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain lines even on a terminal")
	cmd.Flags().BoolVar(&sexpr, "sexpr", false, "Also show the compiled form of each formula")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writePlain(w io.Writer, s *sheet.Sheet, sexpr bool) {
	for _, idx := range s.NonEmpty() {
		if sexpr {
			if e, ok := s.Expr(idx); ok {
				fmt.Fprintf(w, "%s: %s\t%s\n", idx, s.Evaluate(idx), calc.Render(e))
				continue
			}
		}
		fmt.Fprintf(w, "%s: %s\n", idx, s.Evaluate(idx))
	}
}

func writeTable(w io.Writer, s *sheet.Sheet, sexpr, tty bool) error {
	var md strings.Builder
	if sexpr {
		md.WriteString("| Cell | Input | Value | Compiled |\n|---|---|---|---|\n")
	} else {
		md.WriteString("| Cell | Input | Value |\n|---|---|---|\n")
	}
	for _, idx := range s.NonEmpty() {
		fmt.Fprintf(&md, "| %s | `%s` | %s |", idx, cellText(s.Get(idx)), cellText(s.Evaluate(idx)))
		if sexpr {
			form := ""
			if e, ok := s.Expr(idx); ok {
				form = calc.Render(e)
			}
			fmt.Fprintf(&md, " %s |", cellText(form))
		}
		md.WriteString("\n")
	}

	style := glamour.WithStandardStyle("notty")
	if tty {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(0))
	if err != nil {
		return err
	}
	rendered, err := r.Render(md.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// cellText keeps a value on one markdown table row.
func cellText(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
