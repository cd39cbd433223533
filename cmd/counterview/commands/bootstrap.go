package commands

import (
	"github.com/spf13/cobra"

	counterview "github.com/robbyt/go-counterview"
	"github.com/robbyt/go-counterview/bootstrap"
)

// bootstrapCmd runs the bootstrap sequence in the foreground. A failed
// module is only logged, so the command still exits 0.
func bootstrapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Initialize the module, call it once with (10, 5) and log the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initializer, err := counterview.NewInitializer(a.cfg, a.logHandler)
			if err != nil {
				return err
			}
			bs, err := bootstrap.New(initializer, a.logHandler)
			if err != nil {
				return err
			}
			bs.Run(cmd.Context())
			return nil
		},
	}
}
