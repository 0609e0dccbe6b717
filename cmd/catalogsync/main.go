// Command catalogsync mirrors a schema-less XML product catalog into
// relational tables.
//
//	catalogsync sync --config pipeline.yaml
//	catalogsync plan --file feed.xml
//	catalogsync inspect --file feed.xml --selector "offer > price" --text
//	catalogsync validate --config pipeline.yaml
//
// Exit codes: 0 on success, 1 on runtime errors, 2 on usage errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	// register all backends with the storage factory.
	_ "catalogsync/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// runMain runs the CLI and maps its outcome to an exit code. It never calls
// os.Exit so tests can drive it directly.
func runMain(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		code := 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return code
	}
	return 0
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "catalogsync",
		Usage:     "Mirror an XML product catalog into relational tables",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			syncCommand(),
			planCommand(),
			inspectCommand(),
			validateCommand(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return usageErrorf("unknown command %q (see catalogsync --help)", c.Args().First())
			}
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", 2)
		},
		OnUsageError: onUsageError,
		// Exit codes are decided by runMain; urfave must not call os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return usageErrorf("usage: %v", err)
}

func usageErrorf(format string, a ...any) error {
	return cli.Exit(fmt.Sprintf(format, a...), 2)
}
