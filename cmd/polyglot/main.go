package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-polyglot"
)

const shutdownTimeout = 10 * time.Second

var usage = `usage: polyglot [-config path] <command> [flags]

commands:
  serve     run the HTTP API (default)
  migrate   apply schema migrations (-rollback reverts the last group)
  seed      insert the configured languages (-retries)
  import    import Markdown files as posts (-dir, -lang)
  purge     hard delete soft deleted posts and tags (-older-than, -retries)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("polyglot: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("polyglot", flag.ContinueOnError)
	configPath := global.String("config", os.Getenv("POLYGLOT_CONFIG"), "Path to a YAML, JSON or TOML config file")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}

	cfg, err := polyglot.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	command := "serve"
	rest := global.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "serve":
		return runServe(ctx, cfg, rest)
	case "migrate":
		return runMigrate(ctx, cfg, rest, stdout)
	case "seed":
		return runSeed(ctx, cfg, rest)
	case "import":
		return runImport(ctx, cfg, rest, stdout)
	case "purge":
		return runPurge(ctx, cfg, rest, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func runServe(ctx context.Context, cfg polyglot.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTP.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := polyglot.NewWithContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	server := &http.Server{
		Addr:         *addr,
		Handler:      module.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("polyglot: listening on %s", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context, cfg polyglot.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	rollback := fs.Bool("rollback", false, "Revert the last applied migration group")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Storage.AutoMigrate = false
	cfg.Features.SeedLanguages = false
	module, err := polyglot.NewWithContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	var result polyglot.MigrationResult
	if *rollback {
		result, err = polyglot.Rollback(ctx, module.DB())
	} else {
		result, err = polyglot.Migrate(ctx, module.DB())
	}
	if err != nil {
		return err
	}
	if result.Empty() {
		fmt.Fprintln(stdout, "no migrations to apply")
		return nil
	}
	fmt.Fprintf(stdout, "group %d: %v\n", result.GroupID, result.Migrations)
	return nil
}

func runSeed(ctx context.Context, cfg polyglot.Config, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	retries := fs.Int("retries", 0, "Retry a failed seed this many times")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Features.SeedLanguages = false
	module, err := polyglot.NewWithContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	defer unsubscribe(module.Commands().Subscribe(*retries))
	return dispatcher.Dispatch(ctx, polyglot.SeedLanguagesCommand{})
}

func runImport(ctx context.Context, cfg polyglot.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dir := fs.String("dir", "content", "Directory holding Markdown files")
	lang := fs.String("lang", "", "Language prefix of the imported translations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var result *polyglot.ImportResult
	msg := polyglot.ImportMarkdownCommand{
		Directory:      *dir,
		Language:       *lang,
		ResultCallback: func(r *polyglot.ImportResult) { result = r },
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	module, err := polyglot.NewWithContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	if err := module.Commands().ImportMarkdown.Execute(ctx, msg); err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runPurge(ctx context.Context, cfg polyglot.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "Only purge records soft deleted before now minus this window")
	retries := fs.Int("retries", 0, "Retry a failed purge this many times")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := polyglot.NewWithContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	var result polyglot.PurgeResult
	defer unsubscribe(module.Commands().Subscribe(*retries))
	err = dispatcher.Dispatch(ctx, polyglot.PurgeDeletedCommand{
		OlderThan:      *olderThan,
		ResultCallback: func(r polyglot.PurgeResult) { result = r },
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "purged %d posts, %d tags\n", result.Posts, result.Tags)
	return nil
}

func unsubscribe(subs []polyglot.Subscription) {
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
