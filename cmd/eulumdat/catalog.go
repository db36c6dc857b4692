package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/banshee-data/photometric/internal/catalog"
	"github.com/banshee-data/photometric/internal/photometry"
)

func printCatalogUsage(a *app) {
	fmt.Fprintln(a.stderr, `Usage: eulumdat catalog [--db path] <subcommand> [options]

Subcommands:
  add <file>...             Store photometric files
  list [--query q] [--format ldt|ies] [--limit n]
  show <id>                 Print the stored file
  rm <id>                   Delete an entry
  export [--format ldt|ies] [-o dir] <id>
  schema                    Show the database schema version`)
}

func (a *app) handleCatalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { printCatalogUsage(a) }
	dbPath := fs.String("db", a.cfg.GetCatalogPath(), "Catalog database path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() < 1 {
		printCatalogUsage(a)
		return errUsage
	}

	sub, rest := fs.Arg(0), fs.Args()[1:]
	handlers := map[string]func(context.Context, *catalog.Catalog, []string) error{
		"add":    a.catalogAdd,
		"list":   a.catalogList,
		"show":   a.catalogShow,
		"rm":     a.catalogRemove,
		"export": a.catalogExport,
		"schema": a.catalogSchema,
	}
	handler, ok := handlers[sub]
	if !ok {
		fmt.Fprintf(a.stderr, "Unknown catalog subcommand: %s\n\n", sub)
		printCatalogUsage(a)
		return errUsage
	}

	c, err := catalog.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open catalog %s: %w", *dbPath, err)
	}
	defer c.Close()
	return handler(context.Background(), c, rest)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid entry id %q: %w", s, err)
	}
	return id, nil
}

func (a *app) catalogAdd(ctx context.Context, c *catalog.Catalog, args []string) error {
	if len(args) == 0 {
		printCatalogUsage(a)
		return errUsage
	}
	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err == nil {
			var e catalog.Entry
			e, err = c.Add(ctx, path, string(data))
			if err == nil {
				fmt.Fprintf(a.stdout, "%s\t%s\n", e.ID, path)
				continue
			}
		}
		fmt.Fprintf(a.stderr, "%s: %v\n", path, err)
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) not added", failed, len(args))
	}
	return nil
}

func (a *app) catalogList(ctx context.Context, c *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	query := fs.String("query", "", "Match source name, luminaire name or number")
	format := fs.String("format", "", "Only entries of this format (ldt or ies)")
	limit := fs.Int("limit", 0, "Maximum number of entries")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}

	entries, err := c.List(ctx, catalog.Filter{Query: *query, Format: *format, Limit: *limit})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMAT\tNAME\tNUMBER\tSYMMETRY\tIMAX (cd/klm)\tFLUX (lm)\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\t%.0f\t%s\n",
			e.ID, e.Format, e.LuminaireName, e.LuminaireNumber,
			photometry.SymmetryName(e.Symmetry), e.MaxIntensity, e.TotalLuminousFlux, e.SourceName)
	}
	return tw.Flush()
}

func (a *app) catalogShow(ctx context.Context, c *catalog.Catalog, args []string) error {
	if len(args) != 1 {
		printCatalogUsage(a)
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, e.Body)
	return err
}

func (a *app) catalogRemove(ctx context.Context, c *catalog.Catalog, args []string) error {
	if len(args) != 1 {
		printCatalogUsage(a)
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return c.Delete(ctx, id)
}

func (a *app) catalogExport(ctx context.Context, c *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "", "Convert to ldt or ies (default: stored format)")
	dir := fs.String("o", ".", "Output directory")
	if err := a.parseFlags(fs, args, "id"); err != nil {
		return err
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	path, err := c.Export(ctx, id, *dir, *format)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) catalogSchema(_ context.Context, c *catalog.Catalog, _ []string) error {
	version, dirty, err := c.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "schema version %d", version)
	if dirty {
		fmt.Fprint(a.stdout, " (dirty)")
	}
	fmt.Fprintln(a.stdout)
	return nil
}
