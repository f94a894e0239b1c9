package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/py-react/cloud-ops-sub002/internal/app"
	"github.com/py-react/cloud-ops-sub002/internal/config"
	"github.com/py-react/cloud-ops-sub002/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var scmCmd = &cobra.Command{
	Use:   "scm",
	Short: "Manage source control repositories",
}

var scmInitCmd = &cobra.Command{
	Use:   "init NAME",
	Short: "Create a bare git repository whose pushes trigger release runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		git, err := app.Git(cfg, log.Logger)
		if err != nil {
			return err
		}
		name := utils.SanitizeName(args[0])
		if err := git.InitBare(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), git.RepoDir(name))
		return nil
	},
}

var scmBranchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List the repositories and branches releases may be bound to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		sourceControl, err := app.SourceControl(cfg, log.Logger)
		if err != nil {
			return err
		}
		allowed, err := sourceControl.AllowedBranches(cmd.Context())
		if err != nil {
			return err
		}
		repos := lo.Keys(allowed)
		slices.Sort(repos)
		for _, repo := range repos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", repo, strings.Join(allowed[repo], ","))
		}
		return nil
	},
}

func init() {
	scmCmd.AddCommand(scmInitCmd)
	scmCmd.AddCommand(scmBranchesCmd)
}
