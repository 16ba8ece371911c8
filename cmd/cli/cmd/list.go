package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/safetravel/groupwatch/pkg/simulation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available simulations",
	Long:  `List all available simulations with their descriptions and parameters`,
	RunE:  listSimulations,
}

func init() {
	listCmd.Flags().BoolP("params", "p", false, "show each simulation's parameters")
}

func listSimulations(cmd *cobra.Command, args []string) error {
	configs := simulation.DefaultRegistry.List()
	if len(configs) == 0 {
		fmt.Println("No simulations found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tCATEGORY\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------\t-----------")

	for _, c := range configs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Version, c.Category, c.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	showParams, _ := cmd.Flags().GetBool("params")
	if !showParams {
		return nil
	}

	for _, c := range configs {
		fmt.Printf("\n%s parameters:\n", c.Name)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  NAME\tTYPE\tDEFAULT\tDESCRIPTION")
		for _, p := range c.Parameters {
			def := ""
			if p.Default != nil {
				def = fmt.Sprintf("%v", p.Default)
			}
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Name, p.Type, def, p.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
