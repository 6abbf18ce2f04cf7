package httpserver

import (
	"net/http"

	"foodorder/internal/domain"
	"foodorder/internal/service/menu"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

func (a *api) listMenu(c *gin.Context) {
	items, err := a.Menu.List(c.Request.Context())
	if err != nil {
		a.failure(c, err, "Error", "Could not fetch menu items.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNilItems(items)})
}

func (a *api) ownerMenu(c *gin.Context) {
	items, err := a.Menu.ListByOwner(c.Request.Context(), uid(c))
	if err != nil {
		a.failure(c, err, "Error", "Could not fetch your menu items.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNilItems(items)})
}

func (a *api) createMenuItem(c *gin.Context) {
	var in menu.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	item, err := a.Menu.Create(c.Request.Context(), uid(c), in)
	if err != nil {
		a.failure(c, err, "Error", "Could not add the item. Please try again.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (a *api) updateMenuItem(c *gin.Context) {
	var in menu.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	item, err := a.Menu.Update(c.Request.Context(), uid(c), c.Param("itemID"), in)
	if err != nil {
		a.failure(c, err, "Error", "Could not update the item. Please try again.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *api) deleteMenuItem(c *gin.Context) {
	if err := a.Menu.Delete(c.Request.Context(), uid(c), c.Param("itemID")); err != nil {
		a.failure(c, err, "Error", "Could not delete the item. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": "Success", "message": "Menu item has been deleted."})
}

// uploadMenuImage takes the raw image as the request body.
func (a *api) uploadMenuImage(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	item, err := a.Menu.UploadImage(c.Request.Context(), uid(c), c.Param("itemID"), c.ContentType(), body)
	if err != nil {
		a.failure(c, err, "Upload Failed", "Failed to upload image to Azure. Please try again.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func nonNilItems(items []domain.MenuItem) []domain.MenuItem {
	if items == nil {
		return []domain.MenuItem{}
	}
	return items
}
