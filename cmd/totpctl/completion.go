package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forest6511/totpctl/pkg/store"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script for your shell",
	Long: `To load completions:

Bash:
  $ source <(totpctl completion bash)

  # To load for each session (Linux):
  $ totpctl completion bash > ~/.local/share/bash-completion/completions/totpctl

Zsh:
  $ totpctl completion zsh > ~/.zsh/completions/_totpctl
  # (create ~/.zsh/completions if needed, add to fpath in .zshrc)

Fish:
  $ totpctl completion fish > ~/.config/fish/completions/totpctl.fish

PowerShell:
  PS> totpctl completion powershell >> $PROFILE

Dynamic completion (secret names):
  Set TOTPCTL_COMPLETION_ENABLED=1 to enable secret name completion.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completionLockTimeout keeps tab completion snappy: if another process
// holds the lock, give up instead of stalling the shell.
const completionLockTimeout = time.Second

// isDynamicCompletionEnabled checks if dynamic completion is opt-in
// enabled. It is off by default so tab completion never touches the
// secrets file unasked.
func isDynamicCompletionEnabled() bool {
	return os.Getenv("TOTPCTL_COMPLETION_ENABLED") == "1"
}

// completeSecretNames provides secret name completion (opt-in only).
func completeSecretNames(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if !isDynamicCompletionEnabled() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg := storeConfig()
	cfg.LockTimeout = completionLockTimeout

	records, err := store.List(cfg, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	lowerPrefix := strings.ToLower(toComplete)
	for _, rec := range records {
		if strings.HasPrefix(strings.ToLower(rec.Name), lowerPrefix) {
			names = append(names, rec.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
