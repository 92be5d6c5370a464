package kubemerge

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/kubemerge/kubemerge/pkg/certinspect"
	"github.com/kubemerge/kubemerge/pkg/config"
	"github.com/kubemerge/kubemerge/pkg/kubeconfig"
	"github.com/kubemerge/kubemerge/pkg/testable"
	"github.com/urfave/cli/v2"
	"k8s.io/client-go/tools/clientcmd/api"
)

var MergeCommand = cli.Command{
	Name:      "merge",
	Usage:     "Merge a kubeconfig file into your default kubeconfig",
	ArgsUsage: "<kubeconfig file>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kubeconfig", Usage: "Override the kubeconfig file to merge into"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Show what the merge would do without writing anything"},
		&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "Ask before dropping contexts that already exist"},
	},
	Action: func(c *cli.Context) error {
		incomingPath := c.Args().First()
		if incomingPath == "" {
			return clierr.New("usage: kubemerge merge <kubeconfig file>",
				clierr.Info("provide the path of the kubeconfig file to merge into your default kubeconfig"))
		}
		if c.NArg() > 1 {
			return clierr.New("too many arguments", clierr.Info("merge takes a single kubeconfig file"))
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		defaultPath, err := resolveDefaultPath(c, cfg)
		if err != nil {
			return err
		}

		incoming, err := kubeconfig.Open(incomingPath)
		if err != nil {
			return err
		}
		current, err := kubeconfig.Open(defaultPath)
		if err != nil {
			return err
		}

		dryRun := c.Bool("dry-run")
		if !dryRun {
			backupPath, err := kubeconfig.Backup(defaultPath, cfg.BackupDir, cfg.BackupPrefix, time.Now())
			if err != nil {
				return fmt.Errorf("backing up %s: %w", defaultPath, err)
			}
			clio.Infof("Backed up %s to %s", defaultPath, backupPath)
		}

		m := kubeconfig.Merger{}
		opts := kubeconfig.Opts{
			DropUnrenamed:   cfg.DropUnrenamedContexts,
			FailOnDuplicate: c.Bool("interactive"),
		}

		merged, result, err := m.Merge(current, incoming, opts)
		var dce kubeconfig.DuplicateContextError
		if errors.As(err, &dce) {
			clio.Warn(dce.Error())

			const (
				DROP  = "Drop the duplicates and keep my existing contexts"
				ABORT = "Abort, I will resolve this manually"
			)

			in := survey.Select{Message: "Some incoming contexts already exist. How would you like to proceed?", Options: []string{DROP, ABORT}}
			var selected string
			withStdio := survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)
			if err := testable.AskOne(&in, &selected, withStdio); err != nil {
				return err
			}

			if selected == ABORT {
				return fmt.Errorf("aborting merge of %s", incomingPath)
			}

			opts.FailOnDuplicate = false
			merged, result, err = m.Merge(current, incoming, opts)
		}
		if err != nil {
			return err
		}

		for _, s := range result.Skipped {
			clio.Warnf("Skipping rename of context %s: %s", s.Context, s.Reason)
		}
		for _, r := range result.Renamed {
			clio.Debugf("Renamed context %s to %s (user %s to %s)", r.Context, r.NewContext, r.User, r.NewUser)
		}
		for _, name := range result.Dropped {
			clio.Warnf("Context %s already exists in %s, keeping the existing entry", name, defaultPath)
		}

		reportCertificates(merged, result, time.Now())

		added := len(merged.Contexts) - len(current.Contexts)
		if dryRun {
			clio.Infof("Dry run: %d context(s) would be added to %s", added, defaultPath)
			return nil
		}

		if err := kubeconfig.WriteAtomic(defaultPath, *merged); err != nil {
			return err
		}

		clio.Successf("Merged %s into %s (%d context(s) added)", incomingPath, defaultPath, added)
		return nil
	},
}

func resolveDefaultPath(c *cli.Context, cfg *config.Config) (string, error) {
	if path := c.String("kubeconfig"); path != "" {
		return path, nil
	}
	if cfg.DefaultKubeconfig != "" {
		return cfg.DefaultKubeconfig, nil
	}
	return kubeconfig.DefaultPath()
}

// reportCertificates runs the expiry check on every credential the merge
// renamed. Failures are warnings only and never abort the merge.
func reportCertificates(merged *api.Config, result *kubeconfig.Result, now time.Time) {
	for _, r := range result.Renamed {
		user, ok := merged.AuthInfos[r.NewUser]
		if !ok {
			continue
		}
		report, err := certinspect.Inspect(user)
		if err != nil {
			clio.Warnf("Could not check certificate for user %s: %s", r.NewUser, err)
			continue
		}
		printCertReport(r.NewUser, report, now)
	}
}
