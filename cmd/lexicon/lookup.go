package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/search"
	"github.com/gcbaptista/go-lexicon/model"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "search the dictionary",
	ArgsUsage: "WORD",
	Action:    runLookup,
}

func runLookup(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one WORD", ExitCodeFlagParseError)
	}

	rt, err := newRuntime(c, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.bringUp(c.Context); err != nil {
		return err
	}

	out := c.App.Writer
	result, err := rt.dict.Search(c.Context, c.Args().First())
	if errors.Is(err, internalErrors.ErrNotFound) {
		fmt.Fprintf(out, "No entry for %q.\n", result.Query)
		if len(result.Suggestions) > 0 {
			fmt.Fprintf(out, "Did you mean: %s?\n", strings.Join(result.Suggestions, ", "))
		}
		return nil
	}
	if err != nil {
		return err
	}

	if result.Exact != nil {
		printEntry(c, *result.Exact)
	}
	if len(result.Related) > 0 {
		fmt.Fprintln(out)
		tbl := table.New("Word", "POS", "Definition").WithWriter(out)
		for _, e := range result.Related {
			tbl.AddRow(e.Word, posLabels(e), search.ShortDefinition(e))
		}
		tbl.Print()
	}
	return nil
}

func printEntry(c *cli.Context, e model.WordEntry) {
	out := c.App.Writer
	header := e.Word
	if e.Phonetic != "" {
		header += " [" + e.Phonetic + "]"
	}
	if g := e.Gender.Code(); g != "" {
		header += " (" + g + ")"
	}
	fmt.Fprintln(out, header)
	if labels := posLabels(e); labels != "" {
		fmt.Fprintln(out, labels)
	}
	for i, d := range e.Definitions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, d.Text)
		for _, ex := range d.Examples {
			fmt.Fprintf(out, "     - %s", ex.Source)
			if ex.Target != "" {
				fmt.Fprintf(out, " / %s", ex.Target)
			}
			fmt.Fprintln(out)
		}
	}
	if e.Conjugation != "" {
		fmt.Fprintf(out, "  conjugation: %s\n", e.Conjugation)
	}
}

func posLabels(e model.WordEntry) string {
	labels := make([]string, len(e.PartsOfSpeech))
	for i, p := range e.PartsOfSpeech {
		labels[i] = p.Label()
	}
	return strings.Join(labels, ", ")
}
