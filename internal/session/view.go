package session

import "foodorder/internal/domain"

// View names the tree a client should render.
type View string

const (
	ViewSplash     View = "splash"
	ViewLoading    View = "loading"
	ViewCustomer   View = "customer"
	ViewRestaurant View = "restaurant"
	ViewAuth       View = "auth"
)

// Route maps a gate state to a view. A signed-in identity without a profile
// lands in the customer tree.
func Route(s State) View {
	switch {
	case s.SplashActive:
		return ViewSplash
	case s.Loading:
		return ViewLoading
	case s.Identity != nil:
		if s.Profile != nil && s.Profile.Role == domain.RoleRestaurant {
			return ViewRestaurant
		}
		return ViewCustomer
	default:
		return ViewAuth
	}
}
