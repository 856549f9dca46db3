package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpurt"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "list GPU adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := cfg.BackendKind()
			if err != nil {
				return err
			}
			adapters, err := gpurt.ListAdapters(b)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s adapters", b)))
			if len(adapters) == 0 {
				fmt.Fprintln(w, dimStyle.Render("  none"))
				return nil
			}
			for i, a := range adapters {
				fmt.Fprintf(w, "%s %s %s\n",
					dimStyle.Render(fmt.Sprintf("%2d", i)),
					valueStyle.Render(a.Name),
					dimStyle.Render("("+a.DeviceType+")"))
			}
			return nil
		},
	}
}
