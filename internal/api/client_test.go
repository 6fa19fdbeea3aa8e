package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, staticTokens("tok-123"), zerolog.Nop(), 5*time.Second)
}

func TestListUsersEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/admin/users", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[{"id":"u1","username":"ana"},{"id":"u2","username":"bo"}]}`))
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana", users[0].Username)
}

func TestListUsersBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"u1","username":"ana"}]`))
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestListUsersNullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":null}`))
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"token expired"}`))
	})

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestDomainFailureCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"username already taken"}`))
	})

	err := c.RegisterAdmin(context.Background(), "ana", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsDomain(err))
	assert.Contains(t, err.Error(), "username already taken")
}

func TestNetworkErrorKind(t *testing.T) {
	c := New("http://127.0.0.1:0", staticTokens(""), zerolog.Nop(), time.Second)

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestLoginTopLevelResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/login", r.URL.Path)
		w.Write([]byte(`{"success":true,"token":"fresh-token","user":{"username":"root","role":"super_admin"}}`))
	})

	sess, err := c.Login(context.Background(), "root", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", sess.Token)
	assert.Equal(t, "root", sess.DisplayName)
	assert.True(t, sess.Role.IsSuper())
}

func TestLoginRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"message":"wrong password"}`))
	})

	_, err := c.Login(context.Background(), "root", "nope")
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "wrong password")
}

func TestWhoami(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/whoami", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"username":"root"}}`))
	})

	name, err := c.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root", name)
}

func TestDeleteAdminPath(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, c.DeleteAdmin(context.Background(), 42))
	assert.Equal(t, "/api/admin/42", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestExportProfilesStreamsBinary(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0xde, 0xad, 0xbe, 0xef}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/export/profiles", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(payload)
	})

	var buf bytes.Buffer
	n, err := c.ExportProfiles(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestExportProfilesFailureEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"export job failed"}`))
	})

	var buf bytes.Buffer
	_, err := c.ExportProfiles(context.Background(), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export job failed")
	assert.Zero(t, buf.Len())
}

func TestImportPostsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/import/posts", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "posts.xlsx", header.Filename)
		w.Write([]byte(`{"success":true,"message":"imported 12 posts"}`))
	})

	msg, err := c.ImportPosts(context.Background(), "posts.xlsx", strings.NewReader("cell data"))
	require.NoError(t, err)
	assert.Equal(t, "imported 12 posts", msg)
}

func TestImportPostsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"unsupported file format"}`))
	})

	_, err := c.ImportPosts(context.Background(), "posts.csv", strings.NewReader("a,b"))
	require.Error(t, err)
	assert.Contains(t, UserMessage(err), "unsupported file format")
}

func TestSubscriptionBodies(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, c.ApproveSubscription(context.Background(), "req-9"))
	assert.JSONEq(t, `{"requestId":"req-9"}`, gotBody)

	require.NoError(t, c.UpdateSubscriptionLevel(context.Background(), "u-1", "premium_monthly"))
	assert.JSONEq(t, `{"userId":"u-1","newStatus":"premium_monthly"}`, gotBody)
}
