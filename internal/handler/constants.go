package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteCatalog is the public catalog listing route.
	RouteCatalog = "/catalog"
	// RouteNews is the public news listing route.
	RouteNews = "/news"

	// RouteLogin is the login route, mounted under /admin.
	RouteLogin = "/login"
	// RouteLogout is the logout route, mounted under /admin.
	RouteLogout = "/logout"

	// RouteItemsAdd is the add-item admin route.
	RouteItemsAdd = "/items/add"
	// RouteItemsDelete is the delete-item admin route.
	RouteItemsDelete = "/items/delete"
	// RouteArticlesAdd is the add-article admin route.
	RouteArticlesAdd = "/articles/add"
	// RouteArticlesDelete is the delete-article admin route.
	RouteArticlesDelete = "/articles/delete"
)

const (
	redirectAdmin       = "/admin"
	redirectLogin       = redirectAdmin + RouteLogin
	redirectItemsAdd    = redirectAdmin + RouteItemsAdd
	redirectArticlesAdd = redirectAdmin + RouteArticlesAdd
	redirectCatalog     = RouteCatalog
	redirectNews        = RouteNews
)
