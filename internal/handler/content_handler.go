package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/resp"
)

// HandleHome returns the landing page sections. Sections that fail to load come back empty.
func HandleHome(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Content.Home(r.Context()))
	}
}

// HandleListProjects lists projects, optionally filtered by ?category=, ?featured= and ?limit=.
func HandleListProjects(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		q := apiclient.ProjectQuery{Category: query.Get("category")}
		if v := query.Get("featured"); v != "" {
			featured, err := strconv.ParseBool(v)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			q.Featured = featured
		}

		limit, ok := optionalInt(query.Get("limit"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		q.Limit = limit

		projects, err := deps.Content.Projects(r.Context(), q)
		if err != nil {
			respondUpstreamError(w, r, err, "list projects", "Failed to load projects.")
			return
		}

		resp.RespondSuccess(w, r, projects)
	}
}

// HandleGetProject returns one project by id.
func HandleGetProject(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := deps.Content.Project(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondUpstreamError(w, r, err, "get project", "Failed to load project.")
			return
		}

		resp.RespondSuccess(w, r, project)
	}
}

// HandleListExperience lists experience entries.
func HandleListExperience(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Content.Experience(r.Context())
		if err != nil {
			respondUpstreamError(w, r, err, "list experience", "Failed to load experience.")
			return
		}

		resp.RespondSuccess(w, r, entries)
	}
}

// HandleListBlogPosts returns one page of posts. Supports ?page=, ?limit=, ?category=, ?tag= and ?search=.
func HandleListBlogPosts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		page, okPage := optionalInt(query.Get("page"))
		limit, okLimit := optionalInt(query.Get("limit"))
		if !okPage || !okLimit {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		blog, err := deps.Content.Blog(r.Context(), apiclient.BlogQuery{
			Page:     page,
			Limit:    limit,
			Category: query.Get("category"),
			Tag:      query.Get("tag"),
			Search:   query.Get("search"),
		})
		if err != nil {
			respondUpstreamError(w, r, err, "list blog posts", "Failed to load posts.")
			return
		}

		resp.RespondSuccess(w, r, blog)
	}
}

// HandleGetArticle returns one post with its content rendered to HTML.
func HandleGetArticle(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		article, err := deps.Content.Article(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			respondUpstreamError(w, r, err, "get blog post", "Failed to load post.")
			return
		}

		resp.RespondSuccess(w, r, article)
	}
}

// HandleListBlogCategories lists blog categories with post counts.
func HandleListBlogCategories(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := deps.Content.Categories(r.Context())
		if err != nil {
			respondUpstreamError(w, r, err, "list blog categories", "Failed to load categories.")
			return
		}

		resp.RespondSuccess(w, r, categories)
	}
}

// HandleListBlogTags lists blog tags with post counts.
func HandleListBlogTags(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := deps.Content.Tags(r.Context())
		if err != nil {
			respondUpstreamError(w, r, err, "list blog tags", "Failed to load tags.")
			return
		}

		resp.RespondSuccess(w, r, tags)
	}
}

// optionalInt parses a non-negative query integer. An empty value is zero.
func optionalInt(v string) (int, bool) {
	if v == "" {
		return 0, true
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
