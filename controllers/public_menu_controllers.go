package controllers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/services"
	"github.com/xbirks/alergenu-sub000/utils"
)

// PublicMenuController serves the diner-facing menu. No authentication.
type PublicMenuController struct {
	Menus *services.PublicMenuService
}

func NewPublicMenuController(menus *services.PublicMenuService) *PublicMenuController {
	return &PublicMenuController{Menus: menus}
}

// GetMenu handles /menu/:slug?allergens=gluten,milk&sheet=open&lang=en.
func (pc *PublicMenuController) GetMenu(c *gin.Context) {
	selected, err := allergens.ParseSet(c.Query("allergens"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	menu, err := pc.Menus.Menu(services.PublicMenuQuery{
		Slug:      c.Param("slug"),
		Lang:      c.Query("lang"),
		Selected:  selected,
		SheetOpen: c.Query("sheet") == "open",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", menu)
}

// RedirectQR is the QR target. It counts the scan and forwards to the slug
// URL with the query string intact.
func (pc *PublicMenuController) RedirectQR(c *gin.Context) {
	slug, err := pc.Menus.ResolveQR(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	target := "/menu/" + url.PathEscape(slug)
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	c.Redirect(http.StatusFound, target)
}

func (pc *PublicMenuController) SaveAllergens(c *gin.Context) {
	if err := pc.Menus.SaveAllergens(c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Allergen selection saved", nil)
}

// GetLocalizedMenu handles /api/menu/:id?lang=es|en.
func (pc *PublicMenuController) GetLocalizedMenu(c *gin.Context) {
	menu, err := pc.Menus.Localized(c.Param("id"), c.Query("lang"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Localized menu", menu)
}
