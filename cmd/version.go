/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/bundlecheck/pkg/buildinfo"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show bundlecheck version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().Bool("json", false, "Output version information in JSON format")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	info := buildinfo.Current()
	if !extended {
		info.Commit, info.BuildTime, info.Modified = "", "", false
	}

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "bundlecheck %s\n", info.Version)
	if extended {
		commit := info.Commit
		if len(commit) > 8 {
			commit = commit[:8] // Short commit hash
		}
		if commit == "" {
			commit = "unknown"
		}
		buildTime := info.BuildTime
		if buildTime == "" {
			buildTime = "unknown"
		}
		fmt.Fprintf(out, "Build time: %s\n", buildTime)
		fmt.Fprintf(out, "Git commit: %s\n", commit)
		if info.Modified {
			fmt.Fprintf(out, "Git status: dirty (uncommitted changes)\n")
		}
	}
	fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s/%s\n", info.Platform, info.Arch)
	return nil
}
