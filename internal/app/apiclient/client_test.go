package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/app/kv"
	"studiosite/internal/app/session"
)

func newUpstream(t *testing.T, routes func(r chi.Router)) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newSession() *session.Context {
	return session.New(kv.NewBucket(kv.NewMemoryStore(), "visitor"), nil)
}

func TestLoginStoresTokenAndSendsBearer(t *testing.T) {
	var seenAuth string
	srv := newUpstream(t, func(r chi.Router) {
		r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var creds Credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad"})
				return
			}
			writeJSON(w, http.StatusOK, AuthResponse{Token: "tok-1", User: AuthUser{ID: "u1", Name: "Admin", Role: "admin"}})
		})
		r.Get("/api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
			seenAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, []Conversation{{UserID: "guest_1", Name: "Ada"}})
		})
	})

	ctx := context.Background()
	sess := newSession()
	client := New(Config{BaseURL: srv.URL + "/api"}).WithSession(sess)

	_, err := client.Login(ctx, Credentials{Email: "a@b.c", Password: "wrong"})
	var rf *RequestFailed
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "login", rf.Op)
	assert.Equal(t, http.StatusUnauthorized, rf.Status)

	res, err := client.Login(ctx, Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)

	conversations, err := client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, conversations, 1)
	assert.Equal(t, "Bearer tok-1", seenAuth)

	id, err := sess.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated{Token: "tok-1", UserID: "u1", Name: "Admin", Role: "admin"}, id)

	require.NoError(t, client.Logout(ctx))
	_, err = client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, seenAuth)
}

func TestNonSuccessIsRequestFailed(t *testing.T) {
	srv := newUpstream(t, func(r chi.Router) {
		r.Get("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		})
	})

	_, err := New(Config{BaseURL: srv.URL + "/api"}).GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsFailure(err))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Contains(t, err.Error(), "getProject")
}

func TestTransportUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: base}).ListExperience(context.Background())
	var tu *TransportUnavailable
	require.ErrorAs(t, err, &tu)
	assert.Equal(t, "listExperience", tu.Op)
	assert.True(t, IsFailure(err))
	assert.Zero(t, StatusOf(err))
}

func TestListProjectsQuery(t *testing.T) {
	var query map[string][]string
	srv := newUpstream(t, func(r chi.Router) {
		r.Get("/api/projects", func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			writeJSON(w, http.StatusOK, []Project{{ID: "p1", Title: "Site"}})
		})
	})

	projects, err := New(Config{BaseURL: srv.URL + "/api"}).ListProjects(context.Background(), ProjectQuery{Category: "web", Featured: true})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{"web"}, query["category"])
	assert.Equal(t, []string{"true"}, query["featured"])
	assert.NotContains(t, query, "limit")
}

func TestCreateProjectMultipartEncoding(t *testing.T) {
	var form map[string][]string
	srv := newUpstream(t, func(r chi.Router) {
		r.Post("/api/projects", func(w http.ResponseWriter, r *http.Request) {
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			form = r.MultipartForm.Value
			writeJSON(w, http.StatusCreated, Project{ID: "p1", Title: form["title"][0]})
		})
	})

	client := New(Config{BaseURL: srv.URL + "/api"})

	project, err := client.CreateProject(context.Background(), Fields{
		"title":       "Storefront",
		"tags":        []string{"a", "b"},
		"description": nil,
		"featured":    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", project.ID)

	require.Contains(t, form, "tags")
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(form["tags"][0]), &tags))
	assert.Equal(t, []string{"a", "b"}, tags)
	assert.NotContains(t, form, "description")
	assert.Equal(t, []string{"true"}, form["featured"])
}

func TestPrebuiltMultipartWithFile(t *testing.T) {
	var fileBody, title string
	srv := newUpstream(t, func(r chi.Router) {
		r.Put("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			title = r.FormValue("title")
			f, _, err := r.FormFile("image")
			if !assert.NoError(t, err) {
				return
			}
			raw, _ := io.ReadAll(f)
			fileBody = string(raw)
			writeJSON(w, http.StatusOK, Project{ID: chi.URLParam(r, "id")})
		})
	})

	_, err := New(Config{BaseURL: srv.URL + "/api"}).UpdateProject(context.Background(), "p1", &Multipart{
		Fields: map[string]string{"title": "New"},
		Files:  []File{{Field: "image", Name: "x.png", ContentType: "image/png", Reader: strings.NewReader("PNG")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", title)
	assert.Equal(t, "PNG", fileBody)
}

func TestFieldsOfAndEncode(t *testing.T) {
	featured := false
	fields, err := FieldsOf(ProjectInput{Title: "T", Tags: []string{"go"}, Featured: &featured})
	require.NoError(t, err)

	encoded, err := EncodeFields(fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "T", "tags": `["go"]`, "featured": "false"}, encoded)

	var nilSlice []string
	var nilPtr *string
	encoded, err = EncodeFields(Fields{"a": nilSlice, "b": nilPtr, "c": 3, "d": map[string]int{"x": 1}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3", "d": `{"x":1}`}, encoded)
}

func TestAnonymousShapes(t *testing.T) {
	srv := newUpstream(t, func(r chi.Router) {
		r.Post("/api/anonymous/send", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("queued"))
		})
		r.Get("/api/anonymous/messages/{key}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, AnonymousHistory{Messages: []ChatMessage{{ID: "m1", Message: chi.URLParam(r, "key")}}})
		})
	})

	client := New(Config{BaseURL: srv.URL + "/api"})

	receipt, err := client.AnonymousSend(context.Background(), "vk", "Ada", "hi")
	require.NoError(t, err)
	assert.Equal(t, `"queued"`, string(receipt.Raw))
	assert.Nil(t, receipt.Message)

	history, err := client.AnonymousMessages(context.Background(), "vk")
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "vk", history.Messages[0].Message)
}

func TestAnonymousPlainTextReplyMarshals(t *testing.T) {
	srv := newUpstream(t, func(r chi.Router) {
		r.Post("/api/anonymous/send", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("OK"))
		})
	})

	client := New(Config{BaseURL: srv.URL + "/api"})

	receipt, err := client.AnonymousSend(context.Background(), "vk", "Ada", "hi")
	require.NoError(t, err)

	encoded, err := json.Marshal(struct {
		Raw json.RawMessage `json:"raw"`
	}{Raw: receipt.Raw})
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":"OK"}`, string(encoded))
}

func TestUndecodableSuccessIsDecodeError(t *testing.T) {
	srv := newUpstream(t, func(r chi.Router) {
		r.Post("/api/guest/send", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":42,"createdAt":"2024-01-01 10:00:00"}`))
		})
	})

	client := New(Config{BaseURL: srv.URL + "/api"})

	_, err := client.GuestSend(context.Background(), "guest_1_2", "guest_9_9", "hi")
	require.Error(t, err)

	var undecodable *DecodeError
	require.True(t, errors.As(err, &undecodable))
	assert.Equal(t, "guestSend", undecodable.Op)
	assert.JSONEq(t, `{"id":42,"createdAt":"2024-01-01 10:00:00"}`, string(undecodable.Body))
	assert.False(t, IsFailure(err))
}

func TestRawJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(RawJSON([]byte(`{"a":1}`))))
	assert.Equal(t, `"not json"`, string(RawJSON([]byte("not json"))))
	assert.Nil(t, RawJSON(nil))
}
