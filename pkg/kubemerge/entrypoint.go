package kubemerge

import (
	"github.com/common-fate/clio"
	"github.com/kubemerge/kubemerge/internal/build"
	"github.com/kubemerge/kubemerge/pkg/banners"
	"github.com/kubemerge/kubemerge/pkg/config"
	"github.com/urfave/cli/v2"
)

func GetCliApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		clio.Log(banners.WithVersion())
	}

	flags := []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Usage: "Log debug messages"},
	}

	app := &cli.App{
		Flags:          flags,
		Name:           "kubemerge",
		Usage:          "Merge kubeconfig files into your default kubeconfig",
		UsageText:      "kubemerge [global options] command [command options] [arguments...]",
		Version:        build.Version,
		HideVersion:    false,
		DefaultCommand: "merge",
		Commands: []*cli.Command{
			&MergeCommand,
			&ContextsCommand,
			&CertsCommand,
		},
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			clio.SetLevelFromEnv("KUBEMERGE_LOG")
			if c.Bool("verbose") {
				clio.SetLevelFromString("debug")
			}
			if err := config.SetupConfigFolder(); err != nil {
				return err
			}
			return nil
		},
	}

	return app
}
