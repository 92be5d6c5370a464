package kubemerge

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/fatih/color"
	"github.com/hako/durafmt"
	"github.com/kubemerge/kubemerge/pkg/certinspect"
	"github.com/kubemerge/kubemerge/pkg/config"
	"github.com/kubemerge/kubemerge/pkg/kubeconfig"
	"github.com/urfave/cli/v2"
)

// credentials expiring within this window are highlighted
const expiryWarningWindow = 30 * 24 * time.Hour

var CertsCommand = cli.Command{
	Name:      "certs",
	Usage:     "Report client certificate validity for contexts in your kubeconfig",
	ArgsUsage: "[context]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kubeconfig", Usage: "Override the kubeconfig file to inspect"},
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

		names := make([]string, 0, len(doc.Contexts))
		if ctxName := c.Args().First(); ctxName != "" {
			if _, ok := doc.Contexts[ctxName]; !ok {
				return clierr.New(fmt.Sprintf("context %s not found in %s", ctxName, path),
					clierr.Info("run 'kubemerge contexts' to list the available contexts"))
			}
			names = append(names, ctxName)
		} else {
			for name := range doc.Contexts {
				names = append(names, name)
			}
			sort.Strings(names)
		}

		now := time.Now()
		for _, name := range names {
			ctx := doc.Contexts[name]
			user, ok := doc.AuthInfos[ctx.AuthInfo]
			if !ok {
				clio.Warnf("Context %s references user %s which does not exist", name, ctx.AuthInfo)
				continue
			}
			report, err := certinspect.Inspect(user)
			if err != nil {
				clio.Warnf("Could not check certificate for user %s: %s", ctx.AuthInfo, err)
				continue
			}
			printCertReport(ctx.AuthInfo, report, now)
		}

		return nil
	},
}

func printCertReport(name string, r *certinspect.Report, now time.Time) {
	window := fmt.Sprintf("valid from %s until %s", r.NotBefore.Format(time.RFC3339), r.NotAfter.Format(time.RFC3339))

	switch {
	case r.NotYetValid(now):
		color.New(color.FgYellow).Fprintf(os.Stderr, "%s: certificate is not valid yet (%s)\n", name, window)
	case r.Expired(now):
		color.New(color.FgRed).Fprintf(os.Stderr, "%s: certificate expired %s ago (%s)\n", name, durafmt.ParseShort(now.Sub(r.NotAfter)), window)
	case r.NotAfter.Sub(now) < expiryWarningWindow:
		color.New(color.FgYellow).Fprintf(os.Stderr, "%s: certificate expires in %s (%s)\n", name, durafmt.ParseShort(r.NotAfter.Sub(now)), window)
	default:
		color.New(color.FgGreen).Fprintf(os.Stderr, "%s: certificate expires in %s (%s)\n", name, durafmt.ParseShort(r.NotAfter.Sub(now)), window)
	}
}
