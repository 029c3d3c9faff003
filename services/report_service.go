package services

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

const reportDateLayout = "02/01/2006 15:04"

// ReportService renders the PDF exports.
type ReportService struct {
	db    *gorm.DB
	admin *AdminService
	loc   *time.Location
	now   func() time.Time
}

func NewReportService(db *gorm.DB, admin *AdminService, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{db: db, admin: admin, loc: loc, now: time.Now}
}

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newPDF(orientation, title string, generated time.Time) *pdfDoc {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	doc := &pdfDoc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, doc.tr(fmt.Sprintf("Generado el %s - página %d", generated.Format(reportDateLayout), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, doc.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	return doc
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fit shortens s until it fits in width mm with the current font.
func (d *pdfDoc) fit(s string, width float64) string {
	s = d.tr(s)
	if d.GetStringWidth(s) <= width-1 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 && d.GetStringWidth(string(runes)+".") > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "."
}

func allergenSummary(m allergens.Map) string {
	var out string
	for _, id := range m.Contains() {
		if a, ok := allergens.Lookup(id); ok {
			out += a.NameES + ", "
		}
	}
	for _, id := range m.Traces() {
		if a, ok := allergens.Lookup(id); ok {
			out += a.NameES + " (trazas), "
		}
	}
	if out == "" {
		return "Sin alérgenos declarados"
	}
	return out[:len(out)-2]
}

// DishHistoryPDF lists every saved version of a dish, newest first.
func (s *ReportService) DishHistoryPDF(restaurantID, itemID string) ([]byte, error) {
	item, err := findMenuItem(s.db, restaurantID, itemID)
	if err != nil {
		return nil, err
	}
	var history []models.MenuItemHistory
	if err := s.db.Where("menu_item_id = ? AND restaurant_id = ?", item.ID, restaurantID).
		Order("created_at DESC").
		Find(&history).Error; err != nil {
		return nil, err
	}

	doc := newPDF("P", "Historial de "+item.NameES, s.now().In(s.loc))
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, doc.tr(fmt.Sprintf("Plato actual: %s - %s\nAlérgenos: %s",
		item.NameES, utils.FormatEuros(item.Price), allergenSummary(item.Allergens))), "", "L", false)
	doc.Ln(4)

	if len(history) == 0 {
		doc.CellFormat(0, 8, doc.tr("No hay versiones guardadas."), "", 1, "L", false, 0, "")
		return doc.bytes()
	}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(35, 7, doc.tr("Fecha"), "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 7, doc.tr("Precio"), "1", 0, "R", true, 0, "")
	doc.CellFormat(130, 7, doc.tr("Alérgenos"), "1", 1, "L", true, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, h := range history {
		summary := allergenSummary(h.Snapshot.Allergens)
		lines := doc.SplitText(doc.tr(summary), 128)
		height := float64(len(lines)) * 5
		if height < 7 {
			height = 7
		}
		x, y := doc.GetXY()
		doc.CellFormat(35, height, h.CreatedAt.In(s.loc).Format(reportDateLayout), "1", 0, "L", false, 0, "")
		doc.CellFormat(25, height, doc.tr(utils.FormatEuros(h.Snapshot.Price)), "1", 0, "R", false, 0, "")
		doc.MultiCell(130, height/float64(len(lines)), doc.tr(summary), "1", "L", false)
		doc.SetXY(x, y+height)
	}
	return doc.bytes()
}

// AllergenMatrixPDF renders every live dish against the 14 allergens.
func (s *ReportService) AllergenMatrixPDF(restaurantID string) ([]byte, error) {
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return nil, err
	}
	var categories []models.Category
	if err := s.db.Where("restaurant_id = ?", restaurantID).Order("sort_order ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := s.db.Where("restaurant_id = ? AND review_status IS NULL", restaurantID).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byCategory := make(map[string][]models.MenuItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	const nameWidth, colWidth = 67.0, 15.0
	doc := newPDF("L", "Carta de alérgenos - "+restaurant.Name, s.now().In(s.loc))

	header := func() {
		doc.SetFont("Helvetica", "B", 6)
		doc.SetFillColor(230, 230, 230)
		doc.CellFormat(nameWidth, 8, doc.tr("Plato"), "1", 0, "L", true, 0, "")
		for _, a := range allergens.Catalog {
			doc.CellFormat(colWidth, 8, doc.fit(a.NameES, colWidth), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
	}
	header()

	for _, category := range categories {
		catItems := byCategory[category.ID]
		if len(catItems) == 0 {
			continue
		}
		doc.SetFont("Helvetica", "B", 8)
		doc.CellFormat(nameWidth+colWidth*float64(len(allergens.Catalog)), 6, doc.tr(category.NameES), "1", 1, "L", false, 0, "")

		doc.SetFont("Helvetica", "", 8)
		for _, item := range catItems {
			doc.CellFormat(nameWidth, 6, doc.fit(item.NameES, nameWidth), "1", 0, "L", false, 0, "")
			for _, a := range allergens.Catalog {
				mark := ""
				switch item.Allergens[a.ID] {
				case allergens.Yes:
					mark = "X"
				case allergens.Traces:
					mark = "T"
				}
				doc.CellFormat(colWidth, 6, mark, "1", 0, "C", false, 0, "")
			}
			doc.Ln(-1)
		}
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "", 8)
	doc.CellFormat(0, 5, doc.tr("X = contiene   T = puede contener trazas"), "", 1, "L", false, 0, "")
	return doc.bytes()
}

// TenantsPDF is the admin export: a status chart and the tenants table.
func (s *ReportService) TenantsPDF() ([]byte, error) {
	restaurants, err := s.admin.Restaurants()
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(restaurants)

	doc := newPDF("P", "Informe de restaurantes", s.now().In(s.loc))
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, doc.tr(fmt.Sprintf(
		"Restaurantes: %d\nSuscripciones activas: %d\nPruebas: %d (%d finalizadas)\nEscaneos QR: %d",
		stats.TotalRestaurants, stats.ActiveSubscriptions, stats.Trials, stats.ExpiredTrials, stats.TotalQRScans)), "", "L", false)
	doc.Ln(4)

	if len(restaurants) > 0 {
		png, err := StatusChartPNG(StatusCounts(restaurants))
		if err != nil {
			utils.ErrorLogger.Printf("Error rendering status chart: %v", err)
		} else {
			doc.RegisterImageOptionsReader("status-chart", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
			doc.ImageOptions("status-chart", 10, doc.GetY(), 190, 0, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			doc.Ln(4)
		}
	}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	cols := []struct {
		title string
		width float64
	}{{"Restaurante", 55}, {"Plan", 25}, {"Estado", 30}, {"Fin prueba", 30}, {"QR", 20}, {"Guardados", 30}}
	for _, c := range cols {
		doc.CellFormat(c.width, 7, doc.tr(c.title), "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, r := range restaurants {
		trialEnd := "-"
		if r.TrialEndsAt != nil {
			trialEnd = r.TrialEndsAt.In(s.loc).Format("02/01/2006")
		}
		doc.CellFormat(cols[0].width, 6, doc.fit(r.Name, cols[0].width), "1", 0, "L", false, 0, "")
		doc.CellFormat(cols[1].width, 6, doc.tr(r.Plan), "1", 0, "L", false, 0, "")
		doc.CellFormat(cols[2].width, 6, doc.tr(r.DerivedStatus), "1", 0, "L", false, 0, "")
		doc.CellFormat(cols[3].width, 6, trialEnd, "1", 0, "L", false, 0, "")
		doc.CellFormat(cols[4].width, 6, fmt.Sprintf("%d", r.QRScans), "1", 0, "R", false, 0, "")
		doc.CellFormat(cols[5].width, 6, fmt.Sprintf("%d", r.AllergenSaves), "1", 0, "R", false, 0, "")
		doc.Ln(-1)
	}
	return doc.bytes()
}

// StatusChartPNG draws one bar per status. counts must not be empty.
func StatusChartPNG(counts map[string]int) ([]byte, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no data to chart", ErrInvalidInput)
	}
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	maxCount := 0
	bars := make([]chart.Value, 0, len(statuses))
	for _, status := range statuses {
		if counts[status] > maxCount {
			maxCount = counts[status]
		}
		bars = append(bars, chart.Value{Label: status, Value: float64(counts[status])})
	}

	graph := chart.BarChart{
		Title:    "Restaurantes por estado",
		Width:    900,
		Height:   400,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
