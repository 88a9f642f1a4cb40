package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bobbyapp/cv-transformer/internal/auth"
	"github.com/bobbyapp/cv-transformer/internal/config"
	"github.com/bobbyapp/cv-transformer/internal/parsing"
	"github.com/bobbyapp/cv-transformer/internal/templates"
	"github.com/bobbyapp/cv-transformer/internal/transform"
	"github.com/bobbyapp/cv-transformer/internal/types"
)

var transformCmd = &cobra.Command{
	Use:   "transform [files...]",
	Short: "Transform one or more CV files into branded Word documents",
	Long:  "Uploads each CV (PDF or DOCX) to the Bobby parsing service, follows its progress stream, validates the extracted document and renders it with the selected template.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTransform,
}

var (
	transformConfigPath string
	transformServiceURL string
	transformTemplate   string
	transformOutDir     string
	transformLogoURL    string
	transformParallel   int
	transformVerbose    bool
)

func init() {
	transformCmd.Flags().StringVarP(&transformConfigPath, "config", "c", "", "Path to JSON config file")
	transformCmd.Flags().StringVarP(&transformServiceURL, "service-url", "s", "", "Base URL of the parsing service")
	transformCmd.Flags().StringVarP(&transformTemplate, "template", "t", "", "Template name (default \"gemini\")")
	transformCmd.Flags().StringVarP(&transformOutDir, "out", "o", ".", "Output directory for generated documents")
	transformCmd.Flags().StringVar(&transformLogoURL, "logo-url", "", "URL of the logo asset (optional)")
	transformCmd.Flags().IntVar(&transformParallel, "parallel", 2, "Maximum files transformed concurrently")
	transformCmd.Flags().BoolVarP(&transformVerbose, "verbose", "v", false, "Print every progress update")

	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig()
	if err != nil {
		return err
	}
	if cfg.ServiceURL == "" {
		return fmt.Errorf("a service URL is required (--service-url, config file or BOBBY_SERVICE_URL)")
	}
	if cfg.AccessToken == "" || cfg.RefreshToken == "" {
		return fmt.Errorf("credentials are required (config file or BOBBY_ACCESS_TOKEN / BOBBY_REFRESH_TOKEN)")
	}
	if cfg.Template == "" {
		cfg.Template = templates.DefaultName
	}
	if cfg.RefreshURL == "" {
		cfg.RefreshURL = cfg.ServiceURL + "/api/auth/refresh"
	}

	log := newLogger(cfg.Verbose)

	session := auth.NewSession(
		types.TokenPair{AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken},
		cfg.RefreshURL, nil,
		func() { log.Warn().Msg("session expired, credentials cleared") },
	)
	parser := parsing.NewClient(cfg.ServiceURL, nil)
	registry := templates.Builtin()

	var logo transform.LogoFetcher
	if cfg.LogoURL != "" {
		logo = httpLogoFetcher(cfg.LogoURL)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(transformParallel)

	for _, path := range args {
		path := path
		g.Go(func() error {
			return transformFile(ctx, log, transformFileJob{
				path:     path,
				template: cfg.Template,
				outDir:   cfg.OutputDir,
				parser:   parser,
				session:  session,
				registry: registry,
				logo:     logo,
			})
		})
	}
	return g.Wait()
}

type transformFileJob struct {
	path     string
	template string
	outDir   string
	parser   *parsing.Client
	session  *auth.Session
	registry *templates.Registry
	logo     transform.LogoFetcher
}

func transformFile(ctx context.Context, log zerolog.Logger, job transformFileJob) error {
	data, err := os.ReadFile(job.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", job.path, err)
	}

	filename := filepath.Base(job.path)
	fileLog := log.With().Str("file", filename).Logger()

	transformer, err := transform.New(transform.Options{
		Parser:     job.parser,
		Session:    job.session,
		Registry:   job.registry,
		Downloader: &diskDownloader{dir: job.outDir},
		Logo:       job.logo,
		Logger:     fileLog,
		OnState: func(s transform.State) {
			fileLog.Debug().
				Str("step", string(s.Step)).
				Int("percent", s.Percent).
				Str("elapsed", s.Elapsed).
				Msg(s.Message)
		},
	})
	if err != nil {
		return err
	}

	if err := transformer.Transform(ctx, filename, data, job.template); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	state := transformer.State()
	fileLog.Info().Str("elapsed", state.Elapsed).Msg("done")
	return nil
}

// loadMergedConfig layers flag values over the config file over environment
// variables. Flags win.
func loadMergedConfig() (config.Config, error) {
	fromEnv := config.Config{
		ServiceURL:   os.Getenv("BOBBY_SERVICE_URL"),
		AccessToken:  os.Getenv("BOBBY_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("BOBBY_REFRESH_TOKEN"),
	}

	var fromFile config.Config
	if transformConfigPath != "" {
		loaded, err := config.LoadConfig(transformConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		fromFile = *loaded
	}

	fromFlags := config.Config{
		ServiceURL: transformServiceURL,
		Template:   transformTemplate,
		OutputDir:  transformOutDir,
		LogoURL:    transformLogoURL,
		Verbose:    transformVerbose,
	}

	merged := fromFlags.MergeWithDefaults(fromFile.MergeWithDefaults(fromEnv))
	merged.Verbose = transformVerbose || fromFile.Verbose
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// diskDownloader writes the finished binary into the output directory.
type diskDownloader struct {
	dir string
}

func (d *diskDownloader) Download(filename string, data []byte) error {
	dir := d.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, filename), data, 0644)
}

// httpLogoFetcher downloads the logo asset. Failures are reported to the
// caller, which treats a missing logo as cosmetic.
func httpLogoFetcher(url string) transform.LogoFetcher {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("logo fetch returned status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	}
}
