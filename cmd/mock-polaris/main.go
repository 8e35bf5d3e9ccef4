package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shpitdev/polaris-autoingest/internal/mockpolaris"
)

func main() {
	addr := defaultString("MOCK_POLARIS_ADDR", ":8080")
	schemaDir := defaultString("MOCK_POLARIS_SCHEMA_DIR", "/data/schemas")
	jobsDir := defaultString("MOCK_POLARIS_JOBS_DIR", "")
	credential := defaultString("MOCK_POLARIS_CREDENTIAL", "")

	fs := flag.NewFlagSet("mock-polaris", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&schemaDir, "schema-dir", schemaDir, "Directory containing sampling schemas named <object>.json")
	fs.StringVar(&jobsDir, "jobs-dir", jobsDir, "Directory to persist submitted job payloads (empty disables)")
	fs.StringVar(&credential, "credential", credential, "Require this Basic credential on every request (empty disables)")
	_ = fs.Parse(os.Args[1:])

	srv := mockpolaris.New(schemaDir, jobsDir)
	srv.RequireBasicCredential(credential)

	_, _ = fmt.Fprintf(os.Stdout, "mock-polaris listening on %s (schemas=%s jobs=%s)\n", addr, schemaDir, jobsDir)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
