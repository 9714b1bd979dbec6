package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/duynguyendang/airdata/internal/manager"
	"github.com/duynguyendang/airdata/pkg/repl"
	"github.com/duynguyendang/airdata/pkg/server"
	"github.com/duynguyendang/airdata/pkg/survey"
)

func main() {
	// Define flags
	serverMode := flag.Bool("server", false, "run REST API server over a datasets directory")
	dataFlag := flag.String("data", "", "path to the answer matrix CSV (empty: bundled sample data)")
	schemaFlag := flag.String("schema", "", "path to the question metadata CSV (empty: bundled sample data)")
	idColumnFlag := flag.String("id-column", "", "respondent identifier column (default ResponseId)")
	datasetsFlag := flag.String("datasets", "./datasets", "datasets root directory for server mode")

	flag.Parse()

	_ = godotenv.Load()

	if *serverMode {
		fmt.Printf("Starting REST API Server. Datasets root: %s\n", *datasetsFlag)

		mgr := manager.NewManager(*datasetsFlag)
		defer mgr.CloseAll()

		srv := server.NewServer(mgr)
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		addr := ":" + port
		if err := srv.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	// === Interactive Mode ===

	opts := survey.Options{
		DataFile:   firstNonEmpty(*dataFlag, os.Getenv("AIRDATA_DATA_FILE")),
		SchemaFile: firstNonEmpty(*schemaFlag, os.Getenv("AIRDATA_SCHEMA_FILE")),
		IDColumn:   firstNonEmpty(*idColumnFlag, os.Getenv("AIRDATA_ID_COLUMN")),
	}
	if opts.DataFile == "" && opts.SchemaFile == "" {
		fmt.Println("No input files given, using bundled sample data.")
	}

	a, err := survey.Open(opts)
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}
	defer a.Close()

	repl.Run(a, os.Stdin, os.Stdout)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
