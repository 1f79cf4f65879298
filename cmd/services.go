package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/km-arc/go-inject/framework/container"
)

func newServicesCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List registered services",
		Long: `List the services registered once every provider has booted.

With --tag only the services carrying that tag are listed, in registration
order. With --resolve every listed service is built and its type shown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tag, _ := cmd.Flags().GetString("tag")
			resolve, _ := cmd.Flags().GetBool("resolve")

			a, err := newApplication(v)
			if err != nil {
				return err
			}
			if err := a.Providers.Boot(); err != nil {
				return err
			}

			var defs []container.Definition
			if tag != "" {
				for _, d := range a.FindByTag(tag) {
					defs = append(defs, *d)
				}
			} else {
				defs = a.Definitions()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := "NAME\tTARGET\tLIFETIME\tTAGS"
			if resolve {
				header += "\tTYPE"
			}
			fmt.Fprintln(w, header)
			for _, d := range defs {
				target := "-"
				if d.Target != nil {
					target = d.Target.Name()
				}
				lifetime := "shared"
				if d.Private {
					lifetime = "private"
				}
				row := fmt.Sprintf("%s\t%s\t%s\t%s", d.Name, target, lifetime, strings.Join(d.Tags, ","))
				if resolve {
					val, err := a.Get(d.Name)
					if err != nil {
						row += "\terror: " + err.Error()
					} else {
						row += fmt.Sprintf("\t%T", val)
					}
				}
				fmt.Fprintln(w, row)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("tag", "", "only list services carrying this tag")
	cmd.Flags().Bool("resolve", false, "build each service and show its type")
	return cmd
}
