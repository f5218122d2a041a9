package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/sushihentaime/inkwell/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.Handler(http.MethodGet, "/metrics", app.metricsHandler())

	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.rateLimit(app.requirePermission(app.createBlogHandler, userservice.PermissionWriteBlog)))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)

	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/like", app.rateLimit(app.requireAuthUser(app.toggleLikeHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/bookmark", app.rateLimit(app.requireAuthUser(app.toggleBookmarkHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/view", app.rateLimit(app.recordViewHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments", app.rateLimit(app.requireAuthUser(app.addCommentHandler)))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/engagement", app.engagementStatusHandler)
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/analytics", app.requireAuthUser(app.blogAnalyticsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/bookmarks", app.requireAuthUser(app.listBookmarksHandler))
	router.HandlerFunc(http.MethodGet, "/v1/analytics/dashboard", app.requireAuthUser(app.dashboardAnalyticsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/analytics/platform", app.platformAnalyticsHandler)

	return app.recoverPanic(app.requestID(app.logRequest(app.recordMetrics(router, app.authenticate(router)))))
}
