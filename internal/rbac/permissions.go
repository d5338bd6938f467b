package rbac

// Permission names granted by the identity provider. Keep these stable;
// they are part of the access token contract.
const (
	PermGetDrinksDetail = "get:drinks-detail"
	PermPostDrinks      = "post:drinks"
	PermPatchDrinks     = "patch:drinks"
	PermDeleteDrinks    = "delete:drinks"
)

// All lists every permission the API checks.
var All = []string{PermGetDrinksDetail, PermPostDrinks, PermPatchDrinks, PermDeleteDrinks}
