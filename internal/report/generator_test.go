package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/trafficwatch/problem-service/internal/config"
	"github.com/trafficwatch/problem-service/internal/domain"
)

type stubLister struct {
	problems []domain.Problem
	err      error
	gotOwner string
	gotFilt  *domain.ProblemStatus
}

func (s *stubLister) ListByOwner(_ context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error) {
	s.gotOwner = ownerID
	s.gotFilt = status
	return s.problems, s.err
}

type stubFetcher struct {
	data map[string][]byte
}

func (s *stubFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	data, ok := s.data[ref]
	if !ok {
		return nil, errors.New("unavailable")
	}
	return data, nil
}

func newTestGenerator(lister Lister, fetcher ImageFetcher) *Generator {
	g := NewGenerator(lister, fetcher, config.ReportConfig{}, zap.NewNop())
	g.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	// uncompressed content streams keep the rendered text greppable
	g.newDoc = func(fontPath string) *document {
		d := newDocument(fontPath)
		d.pdf.SetCompression(false)
		return d
	}
	return g
}

// assertRendered checks that a text fragment made it into the document. The
// fragments must avoid non-ASCII letters: the core-font fallback maps those to
// cp1252 bytes inside the content stream.
func assertRendered(t *testing.T, data []byte, fragment string) {
	t.Helper()
	if !bytes.Contains(data, []byte(fragment)) {
		t.Errorf("document does not render %q", fragment)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func sampleProblem(title string, imageURL *string) domain.Problem {
	desc := "opis problema"
	return domain.Problem{
		ID:          "p-" + title,
		UserID:      "user-a",
		Title:       title,
		Description: &desc,
		ProblemType: "Rupe na putu",
		Priority:    domain.ProblemPrioritySrednji,
		Status:      domain.ProblemStatusPrijavljeno,
		Latitude:    43.32,
		Longitude:   21.90,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}
}

func assertPDF(t *testing.T, data []byte) {
	t.Helper()
	if len(data) == 0 {
		t.Fatal("empty document")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a PDF, starts with %q", data[:min(8, len(data))])
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(nil, "2025-03-14"); got != "report_all_2025-03-14.pdf" {
		t.Errorf("all filter filename: %q", got)
	}
	status := domain.ProblemStatusReseno
	if got := Filename(&status, "2025-03-14"); got != "report_reseno_2025-03-14.pdf" {
		t.Errorf("status filter filename: %q", got)
	}
}

func TestGenerateEmptySet(t *testing.T) {
	lister := &stubLister{}
	g := newTestGenerator(lister, &stubFetcher{})

	data, filename, err := g.Generate(context.Background(), "user-a", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertPDF(t, data)
	if filename != "report_all_2025-03-14.pdf" {
		t.Errorf("filename: %q", filename)
	}
	if lister.gotOwner != "user-a" {
		t.Errorf("owner not passed through: %q", lister.gotOwner)
	}
	assertRendered(t, data, "taj - Svi")
	assertRendered(t, data, "Datum: 2025-03-14")
	assertRendered(t, data, "Nema problema za izabrani filter.")
}

func TestGenerateWithRecords(t *testing.T) {
	imgRef := "/uploads/photo.png"
	lister := &stubLister{problems: []domain.Problem{
		sampleProblem("Rupa kod skole", &imgRef),
		sampleProblem("Pokvaren semafor", nil),
	}}
	fetcher := &stubFetcher{data: map[string][]byte{imgRef: pngBytes(t)}}
	g := newTestGenerator(lister, fetcher)

	status := domain.ProblemStatusPrijavljeno
	data, filename, err := g.Generate(context.Background(), "user-a", &status)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertPDF(t, data)
	if filename != "report_prijavljeno_2025-03-14.pdf" {
		t.Errorf("filename: %q", filename)
	}
	if lister.gotFilt == nil || *lister.gotFilt != status {
		t.Errorf("status filter not passed through: %v", lister.gotFilt)
	}
	assertRendered(t, data, "taj - Prijavljeno")
	assertRendered(t, data, "Problem 1")
	assertRendered(t, data, "Problem 2")
	assertRendered(t, data, "Naslov: Rupa kod skole")
	assertRendered(t, data, "Prioritet: srednji")
	assertRendered(t, data, "Status: Prijavljeno")
}

func TestGenerateSurvivesImageFailures(t *testing.T) {
	missing := "/uploads/gone.png"
	unreachable := "https://example.invalid/photo.jpg"
	garbage := "ftp://odd/ref"
	notAnImage := "/uploads/note.txt"

	lister := &stubLister{problems: []domain.Problem{
		sampleProblem("a", &missing),
		sampleProblem("b", &unreachable),
		sampleProblem("c", &garbage),
		sampleProblem("d", &notAnImage),
		sampleProblem("e", nil),
	}}
	// notAnImage resolves but carries non-image bytes: the embed fails and a
	// placeholder line is rendered instead.
	fetcher := &stubFetcher{data: map[string][]byte{notAnImage: []byte("plain text, not an image")}}
	g := newTestGenerator(lister, fetcher)

	data, _, err := g.Generate(context.Background(), "user-a", nil)
	if err != nil {
		t.Fatalf("generate should survive image failures: %v", err)
	}
	assertPDF(t, data)
	assertRendered(t, data, "Ne mogu da ubacim sliku u PDF")
}

func TestGeneratePaginatesLongReports(t *testing.T) {
	var problems []domain.Problem
	for i := 0; i < 40; i++ {
		problems = append(problems, sampleProblem(strings.Repeat("dugacak naslov ", 3), nil))
	}
	lister := &stubLister{problems: problems}
	g := newTestGenerator(lister, &stubFetcher{})

	data, _, err := g.Generate(context.Background(), "user-a", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertPDF(t, data)
	// A 40-record report is necessarily longer than the single-page empty one.
	empty, _, err := newTestGenerator(&stubLister{}, &stubFetcher{}).Generate(context.Background(), "user-a", nil)
	if err != nil {
		t.Fatalf("generate empty: %v", err)
	}
	if len(data) <= len(empty) {
		t.Errorf("long report (%d bytes) not larger than empty report (%d bytes)", len(data), len(empty))
	}
}

func TestGenerateStoreFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("connection refused")}
	g := newTestGenerator(lister, &stubFetcher{})

	data, _, err := g.Generate(context.Background(), "user-a", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if data != nil {
		t.Error("no partial document may be returned on failure")
	}
}
