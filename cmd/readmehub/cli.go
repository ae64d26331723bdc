package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/MrSnakeDoc/readmehub/internal/syncer"
	"github.com/MrSnakeDoc/readmehub/internal/version"
)

type (
	serveFunc func() error
	buildFunc func() (*syncer.Synchronizer, error)
)

// newCLIApp creates the CLI. Without a subcommand it serves HTTP.
func newCLIApp(serve serveFunc, build buildFunc, out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "readmehub",
		Usage:   "Content site backed by a single JSON document in a GitHub repository",
		Version: version.String(),
		Writer:  out,
		Action:  func(*cli.Context) error { return serve() },
		Commands: []*cli.Command{
			serveCmd(serve),
			exportCmd(build, out),
			importCmd(build, out),
		},
	}
	// Errors are reported by main, not by urfave's exit handler.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func serveCmd(serve serveFunc) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP server (default)",
		Action: func(*cli.Context) error { return serve() },
	}
}

// exportCmd writes the stored document verbatim.
func exportCmd(build buildFunc, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the current document to a file or stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
		},
		Action: func(c *cli.Context) error {
			s, err := build()
			if err != nil {
				return err
			}
			data, err := s.Export(contextOf(c))
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			path := c.String("out")
			if path == "" {
				_, err = out.Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			return outputJSON(out, map[string]any{"path": path, "bytes": len(data)})
		},
	}
}

// importCmd merges a file into the stored document.
func importCmd(build buildFunc, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Merge a document file into the stored document",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("import takes exactly one file argument")
			}
			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			s, err := build()
			if err != nil {
				return err
			}
			res := s.Import(contextOf(c), data)
			if err := outputJSON(out, res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("import failed: %s", res.Message)
			}
			return nil
		},
	}
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
