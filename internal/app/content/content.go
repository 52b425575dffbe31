/*
Package content composes the public pages from the remote API: the home page sections,
portfolio, career timeline and blog. Media paths are resolved to absolute URLs and blog
bodies are rendered from markdown.
*/
package content

import (
	"context"
	"html/template"

	"github.com/russross/blackfriday"
	"github.com/sourcegraph/conc"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/pkg/assetx"
	"studiosite/internal/pkg/logx"
)

const (
	homeProjects = 6
	homePosts    = 3
)

// API is the read side of the remote API. *apiclient.Client implements it.
type API interface {
	ListProjects(ctx context.Context, q apiclient.ProjectQuery) ([]apiclient.Project, error)
	GetProject(ctx context.Context, id string) (*apiclient.Project, error)
	ListExperience(ctx context.Context) ([]apiclient.Experience, error)
	ListBlogPosts(ctx context.Context, q apiclient.BlogQuery) (*apiclient.BlogPage, error)
	GetBlogPost(ctx context.Context, slug string) (*apiclient.BlogPost, error)
	ListBlogCategories(ctx context.Context) ([]apiclient.BlogCategory, error)
	ListBlogTags(ctx context.Context) ([]apiclient.BlogTag, error)
}

// Service builds page data.
type Service struct {
	api    API
	assets *assetx.Resolver
}

func NewService(api API, assets *assetx.Resolver) *Service {
	return &Service{api: api, assets: assets}
}

// HomePage is everything the landing page shows. A section that failed to load is empty.
type HomePage struct {
	Projects   []apiclient.Project    `json:"projects"`
	Experience []apiclient.Experience `json:"experience"`
	Posts      []apiclient.BlogPost   `json:"posts"`
}

// Home loads the featured projects, the career timeline and the latest posts in parallel.
func (s *Service) Home(ctx context.Context) HomePage {
	page := HomePage{
		Projects:   []apiclient.Project{},
		Experience: []apiclient.Experience{},
		Posts:      []apiclient.BlogPost{},
	}

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		projects, err := s.api.ListProjects(ctx, apiclient.ProjectQuery{Featured: true, Limit: homeProjects})
		if err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("section", "projects").Msg("Home section unavailable")
			return
		}
		page.Projects = s.resolveProjects(projects)
	})
	wg.Go(func() {
		entries, err := s.api.ListExperience(ctx)
		if err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("section", "experience").Msg("Home section unavailable")
			return
		}
		page.Experience = s.resolveExperience(entries)
	})
	wg.Go(func() {
		blog, err := s.api.ListBlogPosts(ctx, apiclient.BlogQuery{Page: 1, Limit: homePosts})
		if err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("section", "posts").Msg("Home section unavailable")
			return
		}
		page.Posts = s.resolvePosts(blog.Posts)
	})
	wg.Wait()

	return page
}

// Projects lists the portfolio.
func (s *Service) Projects(ctx context.Context, q apiclient.ProjectQuery) ([]apiclient.Project, error) {
	projects, err := s.api.ListProjects(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.resolveProjects(projects), nil
}

// Project returns a single project.
func (s *Service) Project(ctx context.Context, id string) (*apiclient.Project, error) {
	p, err := s.api.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveProject(p)
	return p, nil
}

// Experience lists the career timeline.
func (s *Service) Experience(ctx context.Context) ([]apiclient.Experience, error) {
	entries, err := s.api.ListExperience(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveExperience(entries), nil
}

// Blog returns one page of posts.
func (s *Service) Blog(ctx context.Context, q apiclient.BlogQuery) (*apiclient.BlogPage, error) {
	page, err := s.api.ListBlogPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	page.Posts = s.resolvePosts(page.Posts)
	return page, nil
}

// Article is a blog post with its body rendered to HTML.
type Article struct {
	apiclient.BlogPost
	HTML template.HTML `json:"html"`
}

// Article returns the post with slug, rendered.
func (s *Service) Article(ctx context.Context, slug string) (*Article, error) {
	post, err := s.api.GetBlogPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	post.CoverImage = s.assets.Resolve(post.CoverImage)
	return &Article{BlogPost: *post, HTML: RenderMarkdown(post.Content)}, nil
}

// Categories lists blog categories.
func (s *Service) Categories(ctx context.Context) ([]apiclient.BlogCategory, error) {
	return s.api.ListBlogCategories(ctx)
}

// Tags lists blog tags.
func (s *Service) Tags(ctx context.Context) ([]apiclient.BlogTag, error) {
	return s.api.ListBlogTags(ctx)
}

const (
	markdownHTMLFlags = blackfriday.HTML_USE_XHTML |
		blackfriday.HTML_USE_SMARTYPANTS |
		blackfriday.HTML_SMARTYPANTS_FRACTIONS |
		blackfriday.HTML_SMARTYPANTS_DASHES |
		blackfriday.HTML_SMARTYPANTS_LATEX_DASHES |
		blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SKIP_STYLE |
		blackfriday.HTML_SAFELINK

	markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_TABLES |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_SPACE_HEADERS |
		blackfriday.EXTENSION_HEADER_IDS |
		blackfriday.EXTENSION_BACKSLASH_LINE_BREAK |
		blackfriday.EXTENSION_DEFINITION_LISTS
)

// RenderMarkdown converts a post body to HTML with the common extensions. Raw HTML in
// the source is dropped and links are limited to safe protocols.
func RenderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	renderer := blackfriday.HtmlRenderer(markdownHTMLFlags, "", "")
	return template.HTML(blackfriday.Markdown([]byte(src), renderer, markdownExtensions))
}

func (s *Service) resolveProject(p *apiclient.Project) {
	p.Image = s.assets.Resolve(p.Image)
	if len(p.Gallery) > 0 {
		p.Gallery = s.assets.ResolveAll(p.Gallery)
	}
}

func (s *Service) resolveProjects(projects []apiclient.Project) []apiclient.Project {
	if projects == nil {
		return []apiclient.Project{}
	}
	for i := range projects {
		s.resolveProject(&projects[i])
	}
	return projects
}

func (s *Service) resolveExperience(entries []apiclient.Experience) []apiclient.Experience {
	if entries == nil {
		return []apiclient.Experience{}
	}
	for i := range entries {
		entries[i].Logo = s.assets.Resolve(entries[i].Logo)
	}
	return entries
}

func (s *Service) resolvePosts(posts []apiclient.BlogPost) []apiclient.BlogPost {
	if posts == nil {
		return []apiclient.BlogPost{}
	}
	for i := range posts {
		posts[i].CoverImage = s.assets.Resolve(posts[i].CoverImage)
	}
	return posts
}
