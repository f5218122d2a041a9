package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sushihentaime/inkwell/internal/blogservice"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/engagementservice"
	"github.com/sushihentaime/inkwell/internal/userservice"
)

const viewRecordTimeout = 5 * time.Second

// subjectID returns the id of an authenticated user, or 0 for anonymous callers.
func subjectID(user *userservice.User) int {
	if user.IsAnonymous() {
		return 0
	}
	return user.ID
}

func (app *application) viewInput(r *http.Request, blogID int) engagementservice.ViewInput {
	in := engagementservice.ViewInput{
		BlogID:         blogID,
		NetworkAddress: clientAddress(r),
		UserAgent:      r.UserAgent(),
	}

	if id := subjectID(app.getUserContext(r)); id > 0 {
		in.SubjectID = &id
	}

	return in
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreateBlogRequest

	// Parse the request body
	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	input.UserID = app.getUserContext(r).ID

	// Call the blog service
	blog, err := app.blogService.CreateBlog(r.Context(), &input)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, blogservice.ErrUserForeignKey):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// getBlogHandler returns a blog and records the view in the background. Recording never fails the request.
func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.GetBlogByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	in := app.viewInput(r, id)
	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), viewRecordTimeout)
		defer cancel()

		if _, err := app.engagementService.RecordView(ctx, in); err != nil {
			app.logger.Warn("could not record view", slog.Int("blog_id", in.BlogID), slog.String("error", err.Error()))
		}
	})

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getAllBlogsHandler(w http.ResponseWriter, r *http.Request) {
	// get the limit and offset query parameters
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.GetBlogs(r.Context(), limit, offset)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.engagementService.ToggleLike(r.Context(), app.getUserContext(r).ID, id)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"liked": result.Active, "like_count": result.Count}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) toggleBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.engagementService.ToggleBookmark(r.Context(), app.getUserContext(r).ID, id)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bookmarked": result.Active, "bookmark_count": result.Count}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// recordViewHandler records a view synchronously. Only an unknown blog is reported; other failures are logged.
func (app *application) recordViewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	_, err = app.engagementService.RecordView(r.Context(), app.viewInput(r, id))
	if err != nil {
		if errors.Is(err, engagementservice.ErrBlogNotFound) {
			app.notFoundErrorResponse(w, r)
			return
		}
		app.logError(r, err)
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "view recorded"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type addCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int   `json:"parent_id"`
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input addCommentRequest

	// Parse the request body
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.engagementService.AddComment(r.Context(), &engagementservice.AddCommentInput{
		BlogID:    id,
		SubjectID: app.getUserContext(r).ID,
		Content:   input.Content,
		ParentID:  input.ParentID,
	})
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.engagementService.ListComments(r.Context(), id, page, limit)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": result.Comments, "pagination": result.Pagination}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) engagementStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status, err := app.engagementService.GetEngagementStatus(r.Context(), subjectID(app.getUserContext(r)), id)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"engagement": status}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) blogAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	analytics, err := app.engagementService.GetBlogAnalytics(r.Context(), app.getUserContext(r).ID, id)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"analytics": analytics}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listBookmarksHandler(w http.ResponseWriter, r *http.Request) {
	blogs, err := app.engagementService.ListBookmarkedBlogs(r.Context(), app.getUserContext(r).ID)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bookmarks": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) dashboardAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := app.engagementService.GetDashboardAnalytics(r.Context(), app.getUserContext(r).ID)
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"dashboard": dashboard}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) platformAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	platform, err := app.engagementService.GetPlatformAnalytics(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"platform": platform}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
