package hook

import "github.com/spf13/cobra"

// HookCmd groups the git hooks installed into bare repositories.
var HookCmd = &cobra.Command{Use: "hook", Hidden: true}

func init() {
	HookCmd.AddCommand(postReceiveCmd)
}
