package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/signbridge/internal/hook"
)

func newHooksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List letter hooks found in the hooks directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			manager := hook.NewManager(cfg.HooksDir())
			if err := manager.Discover(); err != nil {
				return err
			}
			hooks := manager.List()

			out := cmd.OutOrStdout()
			if len(hooks) == 0 {
				fmt.Fprintf(out, "No hooks in %s\n", manager.Dir())
				return nil
			}

			rows := make([][]string, 0, len(hooks))
			for _, h := range hooks {
				letters := h.Manifest.Letters
				if letters == "" {
					letters = "all"
				}
				rows = append(rows, []string{h.Manifest.Name, h.Manifest.Version, letters, h.Manifest.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Version", "Letters", "Description"}, rows, nil, nil))
			fmt.Fprintf(out, "Directory: %s\nEnabled: %s\n", manager.Dir(), yesNo(cfg.Hooks.Enabled))
			return nil
		},
	}
}
