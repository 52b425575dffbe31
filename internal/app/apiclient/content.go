package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListProjects returns the portfolio, optionally filtered.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) ([]Project, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{}
	if q.Category != "" {
		params["category"] = q.Category
	}
	if q.Featured {
		params["featured"] = "true"
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	req.SetQueryParams(params)

	var projects []Project
	if _, err := execute("listProjects", req, http.MethodGet, "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns one project by id or slug.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if _, err := c.call(ctx, "getProject", http.MethodGet, "/projects/"+url.PathEscape(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project. Requires an admin session.
func (c *Client) CreateProject(ctx context.Context, payload Payload) (*Project, error) {
	var project Project
	if err := c.write(ctx, "createProject", http.MethodPost, "/projects", payload, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject updates a project. Requires an admin session.
func (c *Client) UpdateProject(ctx context.Context, id string, payload Payload) (*Project, error) {
	var project Project
	if err := c.write(ctx, "updateProject", http.MethodPut, "/projects/"+url.PathEscape(id), payload, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project. Requires an admin session.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.call(ctx, "deleteProject", http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
	return err
}

// ListExperience returns the career timeline.
func (c *Client) ListExperience(ctx context.Context) ([]Experience, error) {
	var entries []Experience
	if _, err := c.call(ctx, "listExperience", http.MethodGet, "/experience", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateExperience creates an experience entry. Requires an admin session.
func (c *Client) CreateExperience(ctx context.Context, payload Payload) (*Experience, error) {
	var entry Experience
	if err := c.write(ctx, "createExperience", http.MethodPost, "/experience", payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateExperience updates an experience entry. Requires an admin session.
func (c *Client) UpdateExperience(ctx context.Context, id string, payload Payload) (*Experience, error) {
	var entry Experience
	if err := c.write(ctx, "updateExperience", http.MethodPut, "/experience/"+url.PathEscape(id), payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteExperience deletes an experience entry. Requires an admin session.
func (c *Client) DeleteExperience(ctx context.Context, id string) error {
	_, err := c.call(ctx, "deleteExperience", http.MethodDelete, "/experience/"+url.PathEscape(id), nil, nil)
	return err
}

// ListBlogPosts returns one page of posts.
func (c *Client) ListBlogPosts(ctx context.Context, q BlogQuery) (*BlogPage, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Category != "" {
		params["category"] = q.Category
	}
	if q.Tag != "" {
		params["tag"] = q.Tag
	}
	if q.Search != "" {
		params["search"] = q.Search
	}
	req.SetQueryParams(params)

	var page BlogPage
	if _, err := execute("listBlogPosts", req, http.MethodGet, "/blog", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBlogPost returns one post by slug.
func (c *Client) GetBlogPost(ctx context.Context, slug string) (*BlogPost, error) {
	var post BlogPost
	if _, err := c.call(ctx, "getBlogPost", http.MethodGet, "/blog/"+url.PathEscape(slug), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListBlogCategories returns all categories.
func (c *Client) ListBlogCategories(ctx context.Context) ([]BlogCategory, error) {
	var categories []BlogCategory
	if _, err := c.call(ctx, "listBlogCategories", http.MethodGet, "/blog/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListBlogTags returns all tags.
func (c *Client) ListBlogTags(ctx context.Context) ([]BlogTag, error) {
	var tags []BlogTag
	if _, err := c.call(ctx, "listBlogTags", http.MethodGet, "/blog/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// SubmitContact sends a contact form.
func (c *Client) SubmitContact(ctx context.Context, form ContactForm) error {
	_, err := c.call(ctx, "submitContact", http.MethodPost, "/contact", form, nil)
	return err
}

// write sends a create/update payload as multipart form data.
func (c *Client) write(ctx context.Context, op, method, path string, payload Payload, out any) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	if err := payload.apply(req); err != nil {
		return err
	}

	_, err = execute(op, req, method, path, out)
	return err
}
