package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trafficwatch/problem-service/internal/config"
	"github.com/trafficwatch/problem-service/internal/domain"
)

// Lister is the owner-scoped query the generator consumes. A nil status means
// all statuses; records come back newest first.
type Lister interface {
	ListByOwner(ctx context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error)
}

// ImageFetcher resolves a problem's image reference to raw bytes. Any error
// means the image is skipped; it never aborts the report.
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Generator assembles PDF reports over a user's problems.
type Generator struct {
	problems Lister
	images   ImageFetcher
	fontPath string
	logger   *zap.Logger
	now      func() time.Time
	newDoc   func(fontPath string) *document
}

// NewGenerator constructs a report generator.
func NewGenerator(problems Lister, images ImageFetcher, cfg config.ReportConfig, logger *zap.Logger) *Generator {
	return &Generator{
		problems: problems,
		images:   images,
		fontPath: cfg.FontPath,
		logger:   logger,
		now:      time.Now,
		newDoc:   newDocument,
	}
}

// Filename returns the attachment filename for the given filter and date.
func Filename(status *domain.ProblemStatus, dateStr string) string {
	slug := "all"
	if status != nil {
		slug = string(*status)
	}
	return fmt.Sprintf("report_%s_%s.pdf", slug, dateStr)
}

// Generate fetches the owner-scoped record set and renders it into a single
// complete PDF buffer. It returns the document bytes and the suggested
// filename. On any store or document fault no partial document is returned.
func (g *Generator) Generate(ctx context.Context, ownerID string, status *domain.ProblemStatus) ([]byte, string, error) {
	problems, err := g.problems.ListByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, "", fmt.Errorf("list problems: %w", err)
	}

	dateStr := g.now().Format("2006-01-02")
	filename := Filename(status, dateStr)

	doc := g.newDoc(g.fontPath)

	label := "Svi"
	if status != nil {
		label = status.Label()
	}
	doc.header("Izveštaj - "+label, "Datum: "+dateStr)

	if len(problems) == 0 {
		doc.bodyLine("Nema problema za izabrani filter.")
		data, err := doc.bytes()
		if err != nil {
			return nil, "", err
		}
		return data, filename, nil
	}

	for i := range problems {
		g.renderProblem(ctx, doc, &problems[i], i+1)
		doc.space(6)
		if doc.pastBreakThreshold() && i != len(problems)-1 {
			doc.newPage()
		}
	}

	data, err := doc.bytes()
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

func (g *Generator) renderProblem(ctx context.Context, doc *document, p *domain.Problem, ordinal int) {
	doc.blockTitle(fmt.Sprintf("Problem %d", ordinal))
	doc.bodyLine("Naslov: " + p.Title)
	doc.bodyLine("Opis: " + deref(p.Description))
	doc.bodyLine("Tip problema: " + p.ProblemType)
	if solution := deref(p.ProposedSolution); solution != "" {
		doc.bodyLine("Predlog rešenja: " + solution)
	}
	doc.bodyLine("Prioritet: " + string(p.Priority))
	doc.bodyLine("Status: " + p.Status.Label())

	ref := deref(p.ImageURL)
	if ref == "" {
		return
	}
	data, err := g.images.Fetch(ctx, ref)
	if err != nil {
		// Unreadable, unreachable or unrecognized reference: render nothing.
		g.logger.Debug("skipping report image", zap.String("ref", ref), zap.Error(err))
		return
	}
	doc.space(3)
	doc.bodyLine("Slika:")
	doc.space(1)
	if err := doc.embedImage(fmt.Sprintf("problem-image-%d", ordinal), data); err != nil {
		g.logger.Debug("cannot embed report image", zap.String("ref", ref), zap.Error(err))
		doc.bodyLine("(Ne mogu da ubacim sliku u PDF)")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
