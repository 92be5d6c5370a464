package kubemerge

import (
	"fmt"
	"os"
	"sort"

	"github.com/common-fate/clio/clierr"
	"github.com/kubemerge/kubemerge/pkg/config"
	"github.com/kubemerge/kubemerge/pkg/kubeconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"
)

var ContextsCommand = cli.Command{
	Name:  "contexts",
	Usage: "List the contexts in your default kubeconfig",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kubeconfig", Usage: "Override the kubeconfig file to inspect"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "table", Usage: "Output format (table, yaml, json)"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, err := resolveDefaultPath(c, cfg)
		if err != nil {
			return err
		}

		doc, err := kubeconfig.Open(path)
		if err != nil {
			return err
		}

		switch c.String("output") {
		case "table":
			// fall through to the table below
		case "yaml":
			data, err := clientcmd.Write(*doc)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		case "json":
			data, err := clientcmd.Write(*doc)
			if err != nil {
				return err
			}
			jsonData, err := yaml.YAMLToJSON(data)
			if err != nil {
				return err
			}
			fmt.Println(string(jsonData))
			return nil
		default:
			return clierr.New(fmt.Sprintf("unsupported output format %s", c.String("output")),
				clierr.Info("supported formats are table, yaml and json"))
		}

		names := make([]string, 0, len(doc.Contexts))
		for name := range doc.Contexts {
			names = append(names, name)
		}
		sort.Strings(names)

		var data [][]string
		for _, name := range names {
			ctx := doc.Contexts[name]
			current := ""
			if name == doc.CurrentContext {
				current = "*"
			}
			data = append(data, []string{current, name, ctx.Cluster, ctx.AuthInfo, ctx.Namespace})
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"CURRENT", "NAME", "CLUSTER", "USER", "NAMESPACE"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.SetTablePadding("\t")
		table.SetNoWhiteSpace(true)
		table.AppendBulk(data)
		table.Render()

		return nil
	},
}
