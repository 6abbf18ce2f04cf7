package httpserver

import (
	"net/http"

	"foodorder/internal/service/profile"

	"github.com/gin-gonic/gin"
)

func (a *api) getRestaurantProfile(c *gin.Context) {
	r, err := a.Profiles.Restaurant(c.Request.Context(), uid(c))
	if err != nil {
		a.failure(c, err, "Error", "Failed to load restaurant profile.")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (a *api) saveRestaurantProfile(c *gin.Context) {
	var in profile.RestaurantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	r, err := a.Profiles.SaveRestaurant(c.Request.Context(), uid(c), in)
	if err != nil {
		a.failure(c, err, "Error", "Failed to save restaurant profile. Please try again.")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (a *api) getCustomerProfile(c *gin.Context) {
	p, err := a.Profiles.Customer(c.Request.Context(), uid(c))
	if err != nil {
		a.failure(c, err, "Error", "Failed to load your profile.")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *api) saveCustomerProfile(c *gin.Context) {
	var in profile.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	p, err := a.Profiles.SaveCustomer(c.Request.Context(), uid(c), in)
	if err != nil {
		a.failure(c, err, "Error", "Failed to save your profile. Please try again.")
		return
	}
	c.JSON(http.StatusOK, p)
}
