package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/explorer"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Plot keys understood by BuildSubjectReport.
const (
	PlotSeries       = "series"
	PlotOxygenation  = "oxygenation"
	PlotPhaseChange  = "phase_change"
	PlotProfile      = "profile"
	plotMeansPrefix  = "means_"
	plotCorrelPrefix = "correlation_"
)

// MeansPlotKey is the plot key of a channel's phase-means chart.
func MeansPlotKey(channel string) string { return plotMeansPrefix + channel }

// CorrelationPlotKey is the plot key of a channel pair's scatter chart.
func CorrelationPlotKey(chX, chY string) string { return plotCorrelPrefix + chX + "_" + chY }

// PhaseSummary holds the channel summaries of one phase.
type PhaseSummary struct {
	Phase    string
	Channels []analysis.ChannelSummary
}

// CorrelationResult is Pearson's r for one channel pair.
type CorrelationResult struct {
	ChannelX string
	ChannelY string
	N        int
	R        float64 // NaN when undefined
}

// SubjectReport is everything the PDF shows for one subject.
type SubjectReport struct {
	SubjectID    string
	SourceFile   string
	GeneratedAt  time.Time
	SampleCount  int
	Policy       analysis.Policy
	Intervals    []analysis.Interval
	Channels     []string
	Phases       []PhaseSummary
	Correlations []CorrelationResult
	Profile      []analysis.ProfileComparison
	Cursor       *explorer.Cursor // Sample marked on the oxygenation chart; nil for none
	Warnings     []string
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // Manually tracked Y for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["muted"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(max(1, len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table; widths are fractions of the content width.
func (s *pdfStyler) writeTable(headers []string, widths []float64, rows [][]string) {
	abs := make([]float64, len(widths))
	for i, rel := range widths {
		abs[i] = rel * pdfContentWidth
	}
	header := func() {
		s.applyStyle("tableHeader")
		x := pdfMargin
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(abs[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			x += abs[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		s.applyStyle("tableCell")
		x := pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(abs[i], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			x += abs[i]
		}
		s.currentY += s.lineHeight
	}
	s.addSpacer(3)
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width, height float64, caption string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		height *= pdfContentWidth / width
		width = pdfContentWidth
	}
	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "muted", "C")
	}
	s.addSpacer(2)
}

// addPlot places a named plot or a placeholder line when it was not rendered.
func (s *pdfStyler) addPlot(plotImages map[string][]byte, key, caption string, width, height float64) {
	if img, ok := plotImages[key]; ok && len(img) > 0 {
		s.addImage(img, key, width, height, caption)
		return
	}
	s.writeParagraph(fmt.Sprintf("%s: not available.", caption), "muted", "L")
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// BuildSubjectReport writes the PDF report for one subject.
func BuildSubjectReport(filepath string, r *SubjectReport, plotImages map[string][]byte) error {
	if r == nil {
		return fmt.Errorf("no report data")
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(fmt.Sprintf("Cerebral Blood Flow Report: %s", r.SubjectID), true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph(fmt.Sprintf("Cerebral Blood Flow Report: Subject %s", r.SubjectID), "h1", "C")
	styler.addSpacer(3)
	meta := fmt.Sprintf("Source: %s\nSamples: %d\nPhase segmentation: %s", r.SourceFile, r.SampleCount, r.Policy)
	if !r.GeneratedAt.IsZero() {
		meta += fmt.Sprintf("\nGenerated: %s", r.GeneratedAt.Format("2006-01-02 15:04"))
	}
	styler.writeParagraph(meta, "normal", "L")
	styler.addSpacer(3)

	styler.writeParagraph("Phase Intervals", "h2", "L")
	if len(r.Intervals) > 0 {
		rows := make([][]string, 0, len(r.Intervals))
		for _, iv := range r.Intervals {
			rows = append(rows, []string{
				iv.Label,
				fmt.Sprintf("%.1f", iv.Start),
				fmt.Sprintf("%.1f", iv.End),
				fmt.Sprintf("%.1f", iv.Width()),
			})
		}
		styler.writeTable([]string{"Phase", "Start (s)", "End (s)", "Duration (s)"},
			[]float64{0.4, 0.2, 0.2, 0.2}, rows)
	} else {
		styler.writeParagraph("No samples for this subject.", "normal", "L")
	}

	for _, ps := range r.Phases {
		styler.writeParagraph(fmt.Sprintf("Phase Summary: %s", ps.Phase), "h2", "L")
		rows := make([][]string, 0, len(ps.Channels))
		for _, cs := range ps.Channels {
			rows = append(rows, []string{
				cs.Channel,
				fmt.Sprintf("%d", cs.Count),
				formatValue(cs.Mean),
				formatValue(cs.Median),
				formatValue(cs.StdDev),
				formatValue(cs.Min),
				formatValue(cs.Max),
			})
		}
		styler.writeTable([]string{"Channel", "N", "Mean", "Median", "Std Dev", "Min", "Max"},
			[]float64{0.28, 0.08, 0.128, 0.128, 0.128, 0.128, 0.128}, rows)
	}

	if len(r.Correlations) > 0 {
		styler.writeParagraph("Channel Correlations", "h2", "L")
		rows := make([][]string, 0, len(r.Correlations))
		for _, c := range r.Correlations {
			rows = append(rows, []string{c.ChannelX, c.ChannelY, fmt.Sprintf("%d", c.N), formatValue(c.R)})
		}
		styler.writeTable([]string{"X", "Y", "Pairs", "Pearson r"}, []float64{0.35, 0.35, 0.1, 0.2}, rows)
	}

	if len(r.Profile) > 0 {
		styler.writeParagraph("Your Profile vs Resting Mean", "h2", "L")
		rows := make([][]string, 0, len(r.Profile))
		for _, pc := range r.Profile {
			pct := "n/a"
			if !math.IsNaN(pc.PercentDifference) {
				pct = fmt.Sprintf("%+.1f%%", pc.PercentDifference)
			}
			rows = append(rows, []string{
				pc.Channel, formatValue(pc.DatasetMean), formatValue(pc.UserValue), formatValue(pc.Difference), pct,
			})
		}
		styler.writeTable([]string{"Channel", "Resting mean", "You", "Difference", "Change"},
			[]float64{0.3, 0.175, 0.175, 0.175, 0.175}, rows)
	}

	if len(r.Warnings) > 0 {
		styler.writeParagraph("Data Notes", "h2", "L")
		styler.writeParagraph(strings.Join(r.Warnings, "\n"), "muted", "L")
	}

	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(3)

	wideW := pdfContentWidth * 0.9
	wideH := wideW / 2
	styler.addPlot(plotImages, PlotSeries, "Channel time series with phase bands", wideW, wideH)
	oxyCaption := "Oxygenation proxy"
	if c := r.Cursor; c != nil {
		oxyCaption = fmt.Sprintf("Oxygenation proxy, marked at the first transition (t = %.0f s, %s %.0f%%)",
			c.Sample.Time, c.Phase, c.Fraction*100)
	}
	styler.addPlot(plotImages, PlotOxygenation, oxyCaption, wideW, wideH)
	styler.addPlot(plotImages, PlotPhaseChange, "Change from resting mean by phase (%)", wideW, wideH)

	smallW := pdfContentWidth * 0.6
	smallH := smallW / 2
	for _, ch := range r.Channels {
		styler.addPlot(plotImages, MeansPlotKey(ch), fmt.Sprintf("Phase means of %s", ch), smallW, smallH)
	}
	for _, c := range r.Correlations {
		styler.addPlot(plotImages, CorrelationPlotKey(c.ChannelX, c.ChannelY),
			fmt.Sprintf("%s vs %s", c.ChannelY, c.ChannelX), smallW, smallH)
	}
	if len(r.Profile) > 0 {
		styler.addPlot(plotImages, PlotProfile, "Your profile", smallW, smallH)
	}

	return pdf.OutputFileAndClose(filepath)
}
