package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"catalogsync/internal/xmlsource"
)

func inspectCommand() *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{Name: "selector", Aliases: []string{"s"}, Usage: `CSS selector, e.g. "offer > price"`},
		&cli.BoolFlag{Name: "text", Usage: "print text content instead of markup"},
	)

	return &cli.Command{
		Name:         "inspect",
		Usage:        "Print the parts of a feed matching a CSS selector",
		Flags:        flags,
		OnUsageError: onUsageError,
		Action: func(c *cli.Context) error {
			sel := strings.TrimSpace(c.String("selector"))
			if sel == "" {
				return usageErrorf("usage: catalogsync inspect --file feed.xml --selector SELECTOR [--text]")
			}

			data, err := xmlsource.NewLoader(nil, c.Duration("timeout")).Load(c.Context, feedInput(c))
			if err != nil {
				return err
			}
			n, err := xmlsource.Inspect(c.App.Writer, data, sel, c.Bool("text"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "matches=%d selector=%q\n", n, sel)
			return nil
		},
	}
}
