package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/catalog"
	"github.com/fireflysoft/intellidoc/internal/classification"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
	"github.com/fireflysoft/intellidoc/internal/extraction"
	"github.com/fireflysoft/intellidoc/internal/ingestion"
	"github.com/fireflysoft/intellidoc/internal/pipeline"
	"github.com/fireflysoft/intellidoc/internal/preprocessing"
	"github.com/fireflysoft/intellidoc/internal/results"
	"github.com/fireflysoft/intellidoc/internal/splitting"
	"github.com/fireflysoft/intellidoc/internal/validation"
	"github.com/fireflysoft/intellidoc/internal/vlm"
)

// printError prints to stderr, falling back to stdout if stderr fails.
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file         = flag.String("file", "", "file to process (path, URL, or S3 reference)")
		dir          = flag.String("dir", "", "directory of files to process as a batch")
		source       = flag.String("source", constants.SourceLocal, "source type: local, url, or s3")
		catalogPath  = flag.String("catalog", "", "YAML catalog seed file")
		store        = flag.String("store", "memory", "result store: memory, sqlite, or postgres")
		sqlitePath   = flag.String("sqlite", "intellidoc.db", "sqlite database path (with -store sqlite)")
		strategy     = flag.String("strategy", "", "splitting strategy (default from config)")
		expectedType = flag.String("expected-type", "", "expected document type code hint")
		nature       = flag.String("nature", "", "restrict classification to one document nature")
		fieldCodes   = flag.String("fields", "", "comma-separated catalog field codes to extract")
		async        = flag.Bool("async", false, "submit in the background and poll for completion")
		ocrClassify  = flag.Bool("ocr-classifier", false, "classify via OCR keyword matching instead of the VLM")
		export       = flag.String("export", "", "write results to this XLSX file")
		workers      = flag.Int("workers", 4, "batch worker count (with -dir)")
		analytics    = flag.Bool("analytics", false, "print the analytics summary and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(common.ExitCode(err))
	}

	ctx := context.Background()

	app, cleanup, err := buildApp(ctx, cfg, *store, *sqlitePath, *ocrClassify, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if *catalogPath != "" {
		if err := app.catalog.LoadSeedFile(ctx, *catalogPath); err != nil {
			printError("Error: catalog seed failed: %v\n", err)
			os.Exit(common.ExitCode(err))
		}
	}

	if *analytics {
		summary, err := app.results.Analytics(ctx)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		printJSON(summary)
		return
	}

	if *file == "" && *dir == "" {
		printError("Error: -file or -dir is required\n")
		flag.Usage()
		os.Exit(1)
	}

	baseRequest := pipeline.Request{
		SourceType:        *source,
		ExpectedType:      *expectedType,
		ExpectedNature:    constants.DocumentNature(*nature),
		SplittingStrategy: *strategy,
	}
	if *fieldCodes != "" {
		for _, code := range strings.Split(*fieldCodes, ",") {
			if code = strings.TrimSpace(code); code != "" {
				baseRequest.TargetFieldCodes = append(baseRequest.TargetFieldCodes, code)
			}
		}
	}

	if *dir != "" {
		runBatch(ctx, app, baseRequest, *dir, *workers, logger)
		return
	}

	req := baseRequest
	req.SourceReference = *file
	req.Filename = filepath.Base(*file)

	var result *entity.ProcessingResult
	if *async {
		result, err = runAsync(ctx, app, req, logger)
	} else {
		result, err = runSync(ctx, app, req, logger)
	}
	if err != nil {
		os.Exit(common.ExitCode(err))
	}
	if result == nil {
		os.Exit(1)
	}

	printJSON(result)

	if *export != "" {
		if err := results.ExportXLSX(result, *export); err != nil {
			printError("Error: export failed: %v\n", err)
			os.Exit(1)
		}
		logger.Info("exported results", "path", *export)
	}
}

type app struct {
	catalog      *catalog.Service
	results      *results.Service
	orchestrator *pipeline.Orchestrator
}

func buildApp(ctx context.Context, cfg *common.Config, storeKind, sqlitePath string, ocrClassify bool, logger *slog.Logger) (*app, func(), error) {
	cleanup := func() {}

	var store results.Store
	switch storeKind {
	case "memory":
		store = results.NewMemoryStore()
	case "sqlite":
		s, err := results.NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { s.Close() }
		store = s
	case "postgres":
		s, err := results.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { s.Close() }
		store = s
	default:
		return nil, cleanup, fmt.Errorf("unknown store %q", storeKind)
	}

	resultSvc := results.NewService(store, logger)

	catalogSvc := catalog.NewService(
		catalog.NewInMemoryDocumentTypeRepository(),
		catalog.NewInMemoryFieldRepository(),
		catalog.NewInMemoryValidatorRepository(),
		logger,
	)

	vlmClient := vlm.NewClient(cfg.VLM)

	ingestSvc := ingestion.NewService(cfg.Pipeline, logger,
		ingestion.NewLocalSource(),
		ingestion.NewURLSource(cfg.VLM.Timeout),
	)
	if cfg.S3.Endpoint != "" {
		s3src, err := ingestion.NewS3Source(cfg.S3)
		if err != nil {
			return nil, cleanup, err
		}
		ingestSvc.RegisterSource(s3src)
	}

	preprocessSvc := preprocessing.NewService(cfg.Pipeline, logger)

	splitSvc := splitting.NewService(cfg.Pipeline.DefaultSplittingStrategy, logger,
		splitting.NewWholeDocumentStrategy(),
		splitting.NewPageBasedStrategy(1),
		splitting.NewVisualStrategy(vlmClient),
	)

	var classifier classification.Classifier = vlmClient
	if ocrClassify {
		classifier = classification.NewKeywordClassifier()
	}
	classifySvc := classification.NewService(classifier, catalogSvc, logger)

	extractSvc := extraction.NewService(vlmClient, logger)

	engine := validation.NewEngine(logger,
		validation.DefaultHandlers(vlmClient, referenceSources())...)
	validateSvc := validation.NewService(engine, catalogSvc, logger)

	orch := pipeline.NewOrchestrator(cfg.Pipeline, resultSvc, catalogSvc, pipeline.Stages{
		Ingestion:      pipeline.NewIngestionStage(ingestSvc),
		Preprocessing:  pipeline.NewPreprocessingStage(preprocessSvc),
		Splitting:      pipeline.NewSplittingStage(splitSvc),
		Classification: pipeline.NewClassificationStage(classifySvc),
		Extraction:     pipeline.NewExtractionStage(extractSvc, catalogSvc),
		Validation:     pipeline.NewValidationStage(validateSvc, catalogSvc),
		Persistence:    pipeline.NewPersistenceStage(resultSvc),
	}, logger)

	return &app{catalog: catalogSvc, results: resultSvc, orchestrator: orch}, cleanup, nil
}

// referenceSources is the built-in lookup data for lookup validators.
func referenceSources() map[string][]string {
	return map[string][]string{
		"currency_codes": {"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "CNY", "INR", "NGN"},
		"country_codes": {
			"US", "GB", "DE", "FR", "ES", "IT", "NL", "BE", "CA", "AU", "JP", "CH", "CN", "IN", "NG",
		},
	}
}

func runSync(ctx context.Context, a *app, req pipeline.Request, logger *slog.Logger) (*entity.ProcessingResult, error) {
	result, err := a.orchestrator.Process(ctx, req)
	if err != nil {
		logger.Error("processing failed", "file", req.Filename, "error", err)
		return nil, err
	}
	return result, nil
}

func runAsync(ctx context.Context, a *app, req pipeline.Request, logger *slog.Logger) (*entity.ProcessingResult, error) {
	jobID, err := a.orchestrator.Submit(ctx, req)
	if err != nil {
		logger.Error("submission failed", "file", req.Filename, "error", err)
		return nil, err
	}
	logger.Info("job submitted", "job_id", jobID)

	if !pollJob(ctx, a, jobID, logger) {
		return nil, nil
	}
	result, err := a.results.GetResult(ctx, jobID)
	if err != nil {
		logger.Error("cannot load result", "job_id", jobID, "error", err)
		return nil, err
	}
	return result, nil
}

// pollJob polls until the job reaches a terminal status. Returns false
// when polling was interrupted or failed.
func pollJob(ctx context.Context, a *app, jobID uuid.UUID, logger *slog.Logger) bool {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			job, err := a.results.GetJob(ctx, jobID)
			if err != nil {
				logger.Error("cannot poll job", "job_id", jobID, "error", err)
				return false
			}
			logger.Info("job progress",
				"status", job.Status,
				"step", job.CurrentStep,
				"progress", job.ProgressPercent)
			if job.Status.IsTerminal() {
				return true
			}
		}
	}
}

func runBatch(ctx context.Context, a *app, base pipeline.Request, dir string, workers int, logger *slog.Logger) {
	queue := pipeline.NewBatchQueue(a.orchestrator, logger, pipeline.WithWorkers(workers))

	entries, err := os.ReadDir(dir)
	if err != nil {
		printError("Error: cannot read directory %s: %v\n", dir, err)
		os.Exit(1)
	}
	queued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if constants.MIMETypeForPath(path) == "" {
			continue
		}
		req := base
		req.SourceType = constants.SourceLocal
		req.SourceReference = path
		req.Filename = entry.Name()
		if err := queue.Enqueue(ctx, pipeline.BatchJob{Request: req}); err != nil {
			logger.Error("cannot enqueue", "file", entry.Name(), "error", err)
			continue
		}
		queued++
	}
	logger.Info("batch queued", "files", queued)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Hour)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	summary, err := a.results.Analytics(ctx)
	if err != nil {
		logger.Error("cannot compute analytics", "error", err)
		return
	}
	printJSON(summary)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		printError("Error: cannot encode output: %v\n", err)
	}
}
