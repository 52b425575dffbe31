package apiclient

import (
	"encoding/json"
	"time"
)

// Project is a portfolio entry.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	TechStack   []string  `json:"techStack"`
	Image       string    `json:"image"`
	Gallery     []string  `json:"gallery,omitempty"`
	LiveURL     string    `json:"liveUrl,omitempty"`
	GithubURL   string    `json:"githubUrl,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectQuery filters ListProjects. Zero values are not sent.
type ProjectQuery struct {
	Category string
	Featured bool
	Limit    int
}

// ProjectInput is the structured create/update payload for a project.
type ProjectInput struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
	LiveURL     string   `json:"liveUrl,omitempty"`
	GithubURL   string   `json:"githubUrl,omitempty"`
	Featured    *bool    `json:"featured,omitempty"`
}

// Experience is a career entry.
type Experience struct {
	ID           string   `json:"id"`
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Logo         string   `json:"logo,omitempty"`
	Order        int      `json:"order"`
}

// ExperienceInput is the structured create/update payload for an experience entry.
type ExperienceInput struct {
	Company      string   `json:"company,omitempty"`
	Role         string   `json:"role,omitempty"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      *bool    `json:"current,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Order        *int     `json:"order,omitempty"`
}

// BlogPost is a published article.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content,omitempty"`
	CoverImage  string    `json:"coverImage"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	ReadTime    int       `json:"readTime"`
	Views       int       `json:"views"`
	PublishedAt time.Time `json:"publishedAt"`
}

// BlogQuery filters and paginates ListBlogPosts. Zero values are not sent.
type BlogQuery struct {
	Page     int
	Limit    int
	Category string
	Tag      string
	Search   string
}

// BlogPage is one page of posts.
type BlogPage struct {
	Posts      []BlogPost `json:"posts"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

// BlogCategory is a category with its post count.
type BlogCategory struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// BlogTag is a tag with its post count.
type BlogTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ContactForm is a contact page submission.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Service string `json:"service,omitempty"`
	Budget  string `json:"budget,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput is a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the user returned by login and register.
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is the login/register response.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// ChatMessage is a chat message as stored by the remote API.
// Ordering is by CreatedAt; the site never re-sequences or deduplicates.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Conversation summarizes a chat thread for an authenticated user.
type Conversation struct {
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Unread        int       `json:"unread"`
}

// OnlineUser is a guest currently present in chat.
type OnlineUser struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// GuestInitResponse is the server-issued guest identity.
type GuestInitResponse struct {
	VisitorKey string `json:"visitorKey"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
}

// AnonymousReceipt is the anonymous send response. Raw keeps the body as received.
type AnonymousReceipt struct {
	Success bool            `json:"success"`
	Message *ChatMessage    `json:"data,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// AnonymousHistory is the anonymous history response shape.
type AnonymousHistory struct {
	Messages []ChatMessage `json:"messages"`
}
