package main

import (
	"fmt"
	"sort"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

var statsCommand = &cli.Command{
	Name:   "stats",
	Usage:  "print corpus and progress statistics",
	Action: runStats,
}

func runStats(c *cli.Context) error {
	rt, err := newRuntime(c, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.bringUp(c.Context); err != nil {
		return err
	}

	out := c.App.Writer
	status := rt.dict.Status()
	meta := status.Metadata
	fmt.Fprintf(out, "State:       %s\n", status.State)
	if meta != nil {
		fmt.Fprintf(out, "Source:      %s\n", meta.Source)
		fmt.Fprintf(out, "Headwords:   %d\n", meta.TotalCount)
		fmt.Fprintf(out, "Loaded at:   %s\n", meta.LoadedAt.Format("2006-01-02 15:04:05"))
		if len(meta.FailedPartitions) > 0 {
			fmt.Fprintf(out, "Failed:      %v\n", meta.FailedPartitions)
		}

		partitions := make([]string, 0, len(meta.CountsByPartition))
		for p := range meta.CountsByPartition {
			partitions = append(partitions, p)
		}
		sort.Strings(partitions)

		fmt.Fprintln(out)
		tbl := table.New("Partition", "Entries").WithWriter(out)
		for _, p := range partitions {
			tbl.AddRow(p, meta.CountsByPartition[p])
		}
		tbl.Print()
	}

	stats := rt.dict.ProgressStats()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Learned:     %d\n", stats.LearnedCount)
	fmt.Fprintf(out, "Mastered:    %d\n", stats.MasteredCount)
	if weak, err := rt.dict.WeakWords(); err == nil {
		fmt.Fprintf(out, "Weak:        %d\n", len(weak))
	}
	return nil
}
