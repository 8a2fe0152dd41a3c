package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/Keelando/surf-website-front-end-sub000/internal/api"
	"github.com/Keelando/surf-website-front-end-sub000/internal/ingest"
	"github.com/Keelando/surf-website-front-end-sub000/internal/narrative"
	"github.com/Keelando/surf-website-front-end-sub000/internal/snapshot"
	"github.com/Keelando/surf-website-front-end-sub000/internal/store"
)

var cli struct {
	FeedBase string `help:"Base URL the tide feed documents are fetched from." env:"FEED_BASE" required:""`
	Port     string `help:"HTTP listen port." env:"PORT" default:"8080"`
	DB       string `help:"Path to the SQLite archive." env:"DB_PATH" default:"data/surfdash.db"`
	FTPHost  string `name:"ftp-host" help:"Optional FTP mirror host, tried before HTTP." env:"FTP_HOST"`
	FTPDir   string `name:"ftp-dir" help:"Directory on the FTP mirror holding the feed files." env:"FTP_DIR" default:"feeds"`
	Once     bool   `help:"Refresh both feeds once and exit (for testing)."`
	NoPoll   bool   `help:"Disable polling (server only, for local dev)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("surfdash"),
		kong.Description("Tide reconciliation and storm surge service for the Boundary Bay dashboard."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	// Load timezone once at startup
	loc, err := time.LoadLocation("America/Vancouver")
	if err != nil {
		log.Printf("Warning: could not load America/Vancouver timezone, using UTC: %v", err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	snaps := snapshot.NewHolder()
	client := ingest.NewClient(cli.FeedBase)
	scheduler := ingest.NewScheduler(st, client, snaps, loc)

	if cli.FTPHost != "" {
		scheduler.SetMirror(ingest.NewFTPMirror(cli.FTPHost, cli.FTPDir))
		log.Printf("ftp mirror enabled: %s", cli.FTPHost)
	}

	// Narrative generation is optional - no API key means no narrative.
	if gen, err := narrative.NewGenerator(); err != nil {
		log.Printf("narrative generation disabled: %v", err)
	} else {
		scheduler.SetNarrator(gen)
	}

	server := api.NewServer(snaps, st, cli.Port, loc)

	if cli.Once {
		log.Println("running single refresh")
		if err := scheduler.RefreshOnce(); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
