package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagGroup defines a named group of flags for help output.
type flagGroup struct {
	title string
	flags []string
}

// runFlagGroups defines the logical groupings for the run command's flags.
// Flags not listed here appear under "Other Flags".
var runFlagGroups = []flagGroup{
	{
		title: "Targets",
		flags: []string{"agent", "model", "select", "yolo"},
	},
	{
		title: "Prompt",
		flags: []string{"prompt", "prompt-file", "cwd"},
	},
	{
		title: "Execution",
		flags: []string{"timeout", "concurrency", "extraction-tier", "reextract"},
	},
	{
		title: "Output",
		flags: []string{"json", "quiet", "verbose"},
	},
	{
		title: "Advanced",
		flags: []string{"no-config"},
	},
}

// setGroupedUsage configures the command to display flags in logical groups.
func setGroupedUsage(cmd *cobra.Command, groups []flagGroup) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())

		// Track which flags have been placed in a group
		grouped := make(map[string]bool)

		for _, group := range groups {
			fs := pflag.NewFlagSet(group.title, pflag.ContinueOnError)
			for _, name := range group.flags {
				if f := c.Flags().Lookup(name); f != nil {
					fs.AddFlag(f)
					grouped[name] = true
				}
			}
			if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
				fmt.Fprintf(c.OutOrStderr(), "\n%s:\n%s", group.title, usages)
			}
		}

		// Collect ungrouped flags (help, any new flags not yet categorized)
		other := pflag.NewFlagSet("other", pflag.ContinueOnError)
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if !grouped[f.Name] {
				other.AddFlag(f)
			}
		})
		if usages := other.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(c.OutOrStderr(), "\nOther Flags:\n%s", usages)
		}

		return nil
	})
}
