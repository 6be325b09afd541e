package cli

import (
	"errors"
	"fmt"
	"strings"

	"nairobi-rag/config"
	"nairobi-rag/ingest"
	"nairobi-rag/tui/component/renderer"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	ingestPDFs   []string
	ingestVideos []string
	ingestNoWeb  bool
)

// errAllSourcesFailed makes the process exit non-zero.
var errAllSourcesFailed = errors.New("every source failed to ingest")

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Collect source text into the data directories",
	Long: `Scrapes the configured web pages, extracts text from PDFs and fetches
video transcripts, writing one .txt file per source.

Web pages whose output file already exists and is larger than
ingest.min_size_bytes are skipped. A failing source is reported and the
run continues; the command fails only when every source failed.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestPDFs, "pdf", nil, "PDF file to extract (repeatable)")
	ingestCmd.Flags().StringSliceVar(&ingestVideos, "video", nil, "video to fetch as id=name (repeatable)")
	ingestCmd.Flags().BoolVar(&ingestNoWeb, "no-web", false, "skip the configured web sources")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, log, err := commandContext(cmd, "")
	if err != nil {
		return err
	}
	defer log.Sync()

	plan, err := buildPlan(appConfig, ingestPDFs, ingestVideos, ingestNoWeb)
	if err != nil {
		return err
	}
	if plan.Size() == 0 {
		cmd.Println("Nothing to ingest.")
		return nil
	}

	pipeline := ingest.NewPipeline(ingest.Options{
		WebDir:        appConfig.Data.WebDir,
		PDFDir:        appConfig.Data.PDFDir,
		TranscriptDir: appConfig.Data.TranscriptDir,
		MinSizeBytes:  appConfig.Ingest.MinSizeBytes,
		Timeout:       appConfig.Ingest.Timeout(),
		UserAgent:     appConfig.Ingest.UserAgent,
		MaxBodyBytes:  appConfig.Ingest.MaxBodyBytes,
		Format:        appConfig.Ingest.Format,
	})

	report, err := pipeline.Run(ctx, plan)
	if err != nil {
		return err
	}

	printReport(cmd, report)

	if report.AllFailed() {
		return errAllSourcesFailed
	}
	return nil
}

// buildPlan merges the configured sources with the command line ones.
func buildPlan(cfg *config.Config, pdfs, videos []string, noWeb bool) (ingest.Plan, error) {
	var plan ingest.Plan

	if !noWeb {
		for _, w := range cfg.Sources.Web {
			plan.Web = append(plan.Web, ingest.Source{ID: w.Name, Kind: ingest.KindWeb, Locator: w.URL})
		}
	}

	plan.PDFs = append(plan.PDFs, cfg.Sources.PDFs...)
	plan.PDFs = append(plan.PDFs, pdfs...)

	for _, v := range cfg.Sources.Videos {
		plan.Videos = append(plan.Videos, ingest.Source{ID: v.Name, Kind: ingest.KindTranscript, Locator: v.ID})
	}
	for _, flag := range videos {
		id, name, ok := strings.Cut(flag, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return plan, fmt.Errorf("invalid --video %q: expected id=name", flag)
		}
		plan.Videos = append(plan.Videos, ingest.Source{ID: name, Kind: ingest.KindTranscript, Locator: id})
	}

	return plan, nil
}

func printReport(cmd *cobra.Command, report ingest.BatchReport) {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	sources := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "SOURCE", "STATUS", "DETAIL").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, o := range report.Outcomes {
		detail := o.Output
		if o.Status != ingest.StatusOK {
			detail = o.Reason
		}
		sources.Row(string(o.Source.Kind), o.Source.ID, string(o.Status), renderer.Truncate(detail, 60))
	}
	cmd.Println(sources.Render())

	for _, s := range report.ByKind() {
		cmd.Printf("%-10s ok=%d skipped=%d failed=%d\n", s.Kind, s.OK, s.Skipped, s.Failed)
	}
}
