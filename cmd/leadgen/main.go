package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/iago/outreach-leadgen/internal/bootstrap"
	"github.com/iago/outreach-leadgen/internal/config"
	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/service"
	"github.com/iago/outreach-leadgen/internal/worker"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	logger := bootstrap.NewLogger(os.Stderr, "[leadgen] ")
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
	case "run":
		os.Exit(runJob(ctx, cfg, logger, os.Args[2:]))
	case "worker":
		os.Exit(runWorker(ctx, cfg, os.Args[2:]))
	case "draft":
		os.Exit(runDraft(ctx, cfg, logger, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runJob(ctx context.Context, cfg config.Config, logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var jobPath string
	var outputPath string
	fs.StringVar(&jobPath, "job", "", "Job file (YAML or JSON) with icp, limits and destination")
	fs.StringVar(&outputPath, "output", "", "Write the final job record here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if jobPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-job is required")
		return 2
	}

	input, err := loadJobFile(jobPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "job file error: %v\n", err)
		return 2
	}

	store, closeStore := bootstrap.JobStore(ctx, cfg, nil, logger)
	defer closeStore()

	jobs := service.NewJobsService(service.JobsDependencies{
		Store:  store,
		Runner: bootstrap.Worker(cfg, store, bootstrap.Artifacts(ctx, cfg, logger), logger),
		Logger: logger,
	})
	record, err := jobs.RunSync(ctx, input)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return 1
	}

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "open output: %v\n", err)
			return 1
		}
		defer file.Close()
		out = file
	}
	if err := writeRecord(out, record); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write record: %v\n", err)
		return 1
	}
	if record.Status == domain.JobStatusFailed {
		return 1
	}
	return 0
}

// runWorker consumes queued job ids in a process separate from the API.
// It needs a shared queue and shared job persistence to be useful.
func runWorker(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := bootstrap.NewLogger(os.Stderr, "[leadgen-worker] ")
	redisClient := bootstrap.RedisClient(cfg)
	if redisClient == nil {
		_, _ = fmt.Fprintln(os.Stderr, "REDIS_ADDR is required for a standalone worker")
		return 2
	}
	defer redisClient.Close()
	if !cfg.JobPersistenceEnabled {
		logger.Printf("JOB_PERSISTENCE_ENABLED is false, jobs created by other processes will not be found")
	}

	store, closeStore := bootstrap.JobStore(ctx, cfg, redisClient, logger)
	defer closeStore()
	_, consumer, closeQueue := bootstrap.Queue(ctx, cfg, redisClient, logger)
	defer closeQueue()

	leadgenWorker := bootstrap.Worker(cfg, store, bootstrap.Artifacts(ctx, cfg, logger), logger)
	logger.Printf("standalone worker started consumer=%s", cfg.RedisConsumer)
	worker.NewProcessor(consumer, leadgenWorker, logger).Start(ctx)
	return 0
}

func runDraft(ctx context.Context, cfg config.Config, logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var request service.DraftRequest
	var countries string
	fs.StringVar(&request.ProductName, "product", "", "Product name")
	fs.StringVar(&request.ProductDescription, "description", "", "Product description")
	fs.StringVar(&request.SegmentName, "segment", "", "Target segment name")
	fs.StringVar(&request.SegmentDescription, "segment-description", "", "Target segment notes")
	fs.StringVar(&countries, "countries", "", "Comma-separated country names")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	for _, country := range strings.Split(countries, ",") {
		if trimmed := strings.TrimSpace(country); trimmed != "" {
			request.Countries = append(request.Countries, trimmed)
		}
	}

	result, err := bootstrap.DraftService(ctx, cfg, logger).DraftICP(ctx, request)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "draft failed: %v\n", err)
		return 1
	}

	// The profile is printed as YAML so it can be pasted into a job file.
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(map[string]any{"icp": result.Icp}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode icp: %v\n", err)
		return 1
	}
	if result.Fallback {
		_, _ = fmt.Fprintln(os.Stderr, "note: no model answered, showing keyword fallback")
	}
	return 0
}

func loadJobFile(path string) (domain.LeadgenJobInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.LeadgenJobInput{}, err
	}
	return parseJob(raw)
}

// parseJob accepts YAML or JSON; JSON is valid YAML.
func parseJob(raw []byte) (domain.LeadgenJobInput, error) {
	var input domain.LeadgenJobInput
	decoder := yaml.NewDecoder(strings.NewReader(string(raw)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return input, errors.New("job file is empty")
		}
		return input, fmt.Errorf("decode job: %w", err)
	}
	return input, nil
}

func writeRecord(w io.Writer, record *domain.JobRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(record)
}

func usage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage:
  leadgen run -job job.yaml [-output record.json]
  leadgen worker
  leadgen draft -product NAME [-description TEXT] [-segment NAME] [-countries A,B]

Configuration is read from the environment and from .env / .env.local.
`)
}
