package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/noah-isme/course-planner-api/internal/csvio"
	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/config"
	"github.com/noah-isme/course-planner-api/pkg/export"
	"github.com/noah-isme/course-planner-api/pkg/logger"
)

var validFormats = []string{"json", "csv", "pdf"}

type options struct {
	coursesPath  string
	sectionsPath string
	ratingsPath  string
	target       int
	tolerance    int
	maxResults   int
	strategy     string
	completed    string
	format       string
	rank         int
	outPath      string
	allSeats     bool
}

func main() {
	opts := options{}
	flag.StringVar(&opts.coursesPath, "courses", "", "Path to the candidate course CSV (id,title,credits,categories,preference_score,is_major,prerequisites_met)")
	flag.StringVar(&opts.sectionsPath, "sections", "", "Path to the section catalog CSV, one row per meeting")
	flag.StringVar(&opts.ratingsPath, "ratings", "", "Optional instructor rating CSV (name,average_rating,review_count)")
	flag.IntVar(&opts.target, "target", 15, "Target credit total")
	flag.IntVar(&opts.tolerance, "tolerance", -1, "Credits below target still accepted; negative uses the configured default")
	flag.IntVar(&opts.maxResults, "max", 0, "Maximum schedules to return; 0 uses the configured default")
	flag.StringVar(&opts.strategy, "strategy", "", `Search strategy, "dp" or "dfs"; empty uses the configured default`)
	flag.StringVar(&opts.completed, "completed", "", "Comma separated course ids already completed")
	flag.StringVar(&opts.format, "format", "json", `Output format: "json" (all schedules), "csv" or "pdf" (one ranked schedule)`)
	flag.IntVar(&opts.rank, "rank", 1, "Schedule rank rendered by csv and pdf output")
	flag.StringVar(&opts.outPath, "out", "", "Output file; stdout when empty")
	flag.BoolVar(&opts.allSeats, "all-seats", false, "Consider sections without open seats")
	flag.Parse()

	opts.format = strings.ToLower(opts.format)
	switch {
	case opts.coursesPath == "" || opts.sectionsPath == "":
		log.Fatal("both -courses and -sections must be specified")
	case !slices.Contains(validFormats, opts.format):
		log.Fatalf("%v is not a valid format", opts.format)
	case opts.format == "pdf" && opts.outPath == "":
		log.Fatal("pdf output requires -out")
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("schedule generation failed: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Log.Level == "" || cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	courses, err := csvio.LoadFile(opts.coursesPath, csvio.LoadCourses)
	if err != nil {
		return err
	}
	records, err := csvio.LoadFile(opts.sectionsPath, csvio.LoadSections)
	if err != nil {
		return err
	}
	var ratings []models.InstructorRating
	if opts.ratingsPath != "" {
		if ratings, err = csvio.LoadFile(opts.ratingsPath, csvio.LoadRatings); err != nil {
			return err
		}
	}

	catalog := csvio.NewCatalog(records, ratings)
	validate := validator.New()
	metrics := service.NewMetricsService()
	genCfg := service.GeneratorConfigFromConfig(cfg.Scheduler)
	generator := service.NewScheduleGeneratorService(
		service.NewSectionService(catalog, metrics, logr, !opts.allSeats),
		service.NewInstructorRatingService(catalog, logr),
		service.NewEngineFromConfig(cfg.Weights, logr),
		nil, metrics, validate, logr, genCfg,
	)

	result, err := generator.Generate(ctx, buildRequest(opts, courses))
	if err != nil {
		return err
	}

	var body []byte
	if opts.format == "json" {
		if body, err = json.MarshalIndent(result, "", "  "); err != nil {
			return err
		}
		body = append(body, '\n')
	} else {
		exporter := service.NewExportService(generator, export.NewCSVExporter(), export.NewPDFExporter(nil), validate, logr)
		file, err := exporter.Export(ctx, result.ResultID, dto.ExportScheduleQuery{Format: opts.format, Rank: opts.rank})
		if err != nil {
			return err
		}
		body = file.Body
	}
	return write(opts.outPath, body)
}

func buildRequest(opts options, courses []dto.CourseInput) dto.GenerateScheduleRequest {
	req := dto.GenerateScheduleRequest{
		Courses:       courses,
		TargetCredits: opts.target,
		Strategy:      strings.ToLower(opts.strategy),
		CompletedCourses: lo.Compact(lo.Map(strings.Split(opts.completed, ","), func(id string, _ int) string {
			return strings.TrimSpace(id)
		})),
	}
	if opts.tolerance >= 0 {
		req.Tolerance = lo.ToPtr(opts.tolerance)
	}
	if opts.maxResults > 0 {
		req.MaxResults = lo.ToPtr(opts.maxResults)
	}
	return req
}

func write(path string, body []byte) error {
	var out io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	_, err := out.Write(body)
	return err
}
