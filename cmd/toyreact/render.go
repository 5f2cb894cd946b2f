package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/toyreact/internal/demo"
	"github.com/vango-dev/toyreact/internal/publish"
	"github.com/vango-dev/toyreact/pkg/dom"
	"github.com/vango-dev/toyreact/pkg/ui"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		app  string
		page bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a demo app to HTML",
		Long: `Mount a demo app into a fresh document and print the result.

By default only the body's content is printed; --page prints a
complete HTML document.

Examples:
  toyreact render
  toyreact render --app todo
  toyreact render --app greeting --page > greeting.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if app == "" {
				app = cfg.App
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			doc, err := demo.Render(app, ui.WithLogger(logger))
			if err != nil {
				return err
			}
			if page {
				_, err = cmd.OutOrStdout().Write(publish.Page(doc, app))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dom.InnerHTML(doc.Body()))
			return err
		},
	}

	cmd.Flags().StringVarP(&app, "app", "a", "", fmt.Sprintf("Demo app to render %v (default from config)", demo.Names()))
	cmd.Flags().BoolVar(&page, "page", false, "Print a complete HTML page")

	return cmd
}
