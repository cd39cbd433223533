package commands

import (
	"github.com/spf13/cobra"

	counterview "github.com/robbyt/go-counterview"
	"github.com/robbyt/go-counterview/bootstrap"
	"github.com/robbyt/go-counterview/counter"
	"github.com/robbyt/go-counterview/view"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the counter view; the module is bootstrapped on startup",
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
			v, err := view.New(counter.New(), bs, a.logHandler)
			if err != nil {
				return err
			}
			return v.ListenAndServe(cmd.Context(), a.cfg.Addr)
		},
	}
}
