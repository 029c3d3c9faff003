package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/services"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

func (rc *ReportController) DishHistory(c *gin.Context) {
	id := c.Param("menu_id")
	pdf, err := rc.Reports.DishHistoryPDF(restaurantID(c), id)
	rc.send(c, pdf, err, fmt.Sprintf("dish-%s.pdf", id))
}

func (rc *ReportController) AllergenMatrix(c *gin.Context) {
	pdf, err := rc.Reports.AllergenMatrixPDF(restaurantID(c))
	rc.send(c, pdf, err, "allergen-report.pdf")
}

func (rc *ReportController) Tenants(c *gin.Context) {
	pdf, err := rc.Reports.TenantsPDF()
	rc.send(c, pdf, err, "restaurants-report.pdf")
}

func (rc *ReportController) send(c *gin.Context, pdf []byte, err error, filename string) {
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
