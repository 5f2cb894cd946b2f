package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/toyreact/internal/demo"
	"github.com/vango-dev/toyreact/internal/publish"
	"github.com/vango-dev/toyreact/pkg/ui"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var (
		app    string
		bucket string
		key    string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a rendered snapshot to S3",
		Long: `Render a demo app and upload the page to S3.

Credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
and AWS_SESSION_TOKEN. The bucket, prefix, region and endpoint
default to the "publish" section of toyreact.json.

Examples:
  toyreact publish --bucket previews
  toyreact publish --app todo --key todo/latest.html
  toyreact publish --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if app == "" {
				app = cfg.App
			}
			if bucket == "" {
				bucket = cfg.Publish.Bucket
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			client, err := publish.NewS3Client(cmd.Context(), cfg.Publish)
			if err != nil {
				return err
			}
			p, err := publish.New(client, bucket,
				publish.WithPrefix(cfg.Publish.Prefix),
				publish.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				objects, err := p.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, o := range objects {
					fmt.Fprintf(out, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format(time.RFC3339))
				}
				return nil
			}

			doc, err := demo.Render(app, ui.WithLogger(logger))
			if err != nil {
				return err
			}
			if key == "" {
				key = app + ".html"
			}
			res, err := p.Publish(cmd.Context(), key, publish.Page(doc, app))
			if err != nil {
				return err
			}
			success(out, "Published s3://%s/%s (%d bytes)", res.Bucket, res.Key, res.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&app, "app", "a", "", "Demo app to publish (default from config)")
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Destination bucket (default from config)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Object name under the prefix (default: <app>.html)")
	cmd.Flags().BoolVar(&list, "list", false, "List published snapshots instead of uploading")

	return cmd
}
