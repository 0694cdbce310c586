package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/sync/errgroup"

	"grievance/internal/config"
	"grievance/internal/connectors"
	"grievance/internal/intake"
	"grievance/internal/listener"
	"grievance/internal/normalize"
	"grievance/internal/pipeline"
	"grievance/internal/server"
	"grievance/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "normalize":
		runNormalize(cfg, cmd, os.Args[2:])
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		listenMail := fs.Bool("listen-mail", false, "also run the mail listener in this process")
		_ = fs.Parse(os.Args[2:])
		cfg.HTTPAddr = *addr

		db := openDB(cfg)
		defer db.Close()
		svc, err := intake.Build(cfg, db, log)
		must(err)
		srv := server.New(cfg, db, svc, log)
		if !*listenMail {
			must(srv.Run(ctx))
			return
		}

		conn, err := listener.MakeConnector(ctx, cfg)
		must(err)
		mail := listener.NewService(db, cfg, conn, pipeline.NewProcessingService(db, svc, log), log)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx) })
		g.Go(func() error { return mail.Run(gctx) })
		must(g.Wait())
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])

		db := openDB(cfg)
		defer db.Close()
		cfg.MailListenerProvider = *provider
		conn, err := listener.MakeConnector(ctx, cfg)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, log)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "only process mail from this provider")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])

		db := openDB(cfg)
		defer db.Close()
		processor := newProcessor(cfg, db, log)
		if strings.TrimSpace(*messageID) != "" {
			if *provider == "" {
				must(errors.New("--provider is required with --messageId"))
			}
			res, err := processor.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d status=%s complaint=%d department=%s\n", res.EmailID, res.Status, res.ComplaintID, res.Department)
			return
		}
		processed, complaints, err := processor.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d complaints=%d\n", processed, complaints)
	case "mail:listen":
		db := openDB(cfg)
		defer db.Close()
		conn, err := listener.MakeConnector(ctx, cfg)
		must(err)
		must(listener.NewService(db, cfg, conn, newProcessor(cfg, db, log), log).Run(ctx))
	case "complaints:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 0, "show at most this many, newest first (0 = all)")
		_ = fs.Parse(os.Args[2:])

		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListComplaintsWithUsers()
		must(err)
		if *limit > 0 && len(rows) > *limit {
			rows = rows[:*limit]
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Filed", "User", "Mobile", "Village", "Department", "Standardized", "Complaint"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.CreatedAt, r.UserName, r.UserMobile, r.Village, r.Department, r.Standardized, shorten(r.ComplaintText, 60)})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(rows)})
		t.Render()
	case "complaints:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output path (.csv or .xlsx)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(errors.New("--out is required"))
		}

		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListComplaints()
		must(err)
		must(pipeline.ExportComplaints(rows, *out))
		fmt.Printf("exported %d complaints to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func runNormalize(cfg config.Config, cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	input := fs.String("input", cfg.NormalizeInput, "input dataset (.csv or .xlsx)")
	output := fs.String("output", cfg.NormalizeOutput, "output dataset (.csv or .xlsx)")
	delimiter := fs.String("delimiter", ",", "CSV field delimiter")
	reportXLSX := fs.String("report-xlsx", "", "also write the summary report to this xlsx file")
	summaryOut := fs.String("summary-out", "", "also write the summary as .json or .yaml")
	persist := fs.Bool("persist", false, "store the processed rows in the database")
	_ = fs.Parse(args)

	if *delimiter == `\t` || *delimiter == "tab" {
		*delimiter = "\t"
	}
	delim, size := utf8.DecodeRuneInString(*delimiter)
	if size == 0 || size != len(*delimiter) {
		must(fmt.Errorf("--delimiter must be a single character, got %q", *delimiter))
	}

	start := time.Now()
	fmt.Println("Reading dataset...")
	res, err := normalize.Run(normalize.Options{InputPath: *input, OutputPath: *output, Delimiter: delim})
	if errors.Is(err, normalize.ErrInputNotFound) {
		fmt.Fprintf(os.Stderr, "error: input file not found: %s\n", *input)
		os.Exit(1)
	}
	must(err)

	normalize.WriteConsoleReport(os.Stdout, res.Summary)

	if *reportXLSX != "" {
		must(normalize.ExportSummaryToXLSX(res.Summary, *reportXLSX))
		fmt.Printf("\nsummary report saved to %s\n", *reportXLSX)
	}

	if *summaryOut != "" {
		must(normalize.WriteSummaryFile(res.Summary, *summaryOut))
		fmt.Printf("summary saved to %s\n", *summaryOut)
	}

	if *persist {
		db := openDB(cfg)
		defer db.Close()
		runID := uuid.NewString()
		must(db.InsertNormalizedBatch(runID, res.Header, res.Records))
		must(db.InsertRun(runID, "normalize", nil,
			map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
			map[string]int{"input": res.InputRows, "output": res.OutputRows}))
		fmt.Printf("persisted run %s (%d rows)\n", runID, res.OutputRows)
	}

	fmt.Printf("\nSUCCESS: processed dataset saved to %s\n", *output)
	fmt.Printf("   Original: %d rows\n", res.InputRows)
	fmt.Printf("   Processed: %d rows (duplicates removed)\n", res.OutputRows)
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func newProcessor(cfg config.Config, db *storage.DB, log *slog.Logger) *pipeline.ProcessingService {
	svc, err := intake.Build(cfg, db, log)
	must(err)
	return pipeline.NewProcessingService(db, svc, log)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func usage() {
	fmt.Println("usage: grievance <command>")
	fmt.Println("commands:")
	fmt.Println("  normalize --input=dataset.csv --output=processed.csv [--delimiter=,] [--report-xlsx=report.xlsx] [--summary-out=summary.yaml] [--persist]")
	fmt.Println("  serve [--addr=:8080] [--listen-mail]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  complaints:list [--limit=20]")
	fmt.Println("  complaints:export --out=./out/complaints.xlsx|.csv")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
