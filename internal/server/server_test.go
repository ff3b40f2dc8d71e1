package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deckhand/internal/auth"
	"deckhand/internal/config"
	"deckhand/internal/constants"
	"deckhand/internal/container"
	"deckhand/internal/errors"
	"deckhand/internal/git"
	"deckhand/internal/status"
	"deckhand/internal/testutil"
	"deckhand/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "hunter2"

type serverFixture struct {
	handler     http.Handler
	gitRunner   *testutil.FakeRunner
	compose     *testutil.FakeRunner
	runtime     *testutil.MockRuntime
	composeFile string
	token       string
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	dir := t.TempDir()
	composeFile := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte("services:\n  web:\n    image: nginx:1.25\n  db:\n    image: postgres:16\n"), 0644))

	gitRunner := testutil.NewFakeRunner()
	composeRunner := testutil.NewFakeRunner()
	rt := testutil.NewMockRuntime()

	gitMgr := git.New(config.GitConfig{RepoPath: dir, Remote: "origin", Branch: "main"}, gitRunner, nil)
	containerMgr := container.NewManager(
		config.DockerConfig{ComposeFile: composeFile, Containers: []string{"web", "db"}},
		rt, container.NewCompose(composeFile, composeRunner, time.Minute), nil)

	authenticator, err := auth.NewAuthenticator(testPassword, time.Hour)
	require.NoError(t, err)
	token, err := authenticator.Login(testPassword)
	require.NoError(t, err)

	srv := New(nil, Dependencies{
		Git:        gitMgr,
		Containers: containerMgr,
		Status:     status.NewAggregator(gitMgr, containerMgr),
		Auth:       authenticator,
	})

	return &serverFixture{
		handler:     srv.Handler(),
		gitRunner:   gitRunner,
		compose:     composeRunner,
		runtime:     rt,
		composeFile: composeFile,
		token:       token,
	}
}

func (f *serverFixture) do(req *http.Request, authenticated bool) *httptest.ResponseRecorder {
	if authenticated {
		req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: f.token})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	require.NoError(t, testutil.DecodeJSON(rec.Body, &resp))
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAPIRequiresSession(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/status", nil), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errResp, err := testutil.ParseErrorResponse(rec)
	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrUnauthorized), errResp.Error.Code)
}

func TestLogin(t *testing.T) {
	f := newServerFixture(t)

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(testutil.NewJSONRequest(http.MethodPost, "/api/login", LoginRequest{Password: "nope"}), false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		errResp, err := testutil.ParseErrorResponse(rec)
		require.NoError(t, err)
		assert.Equal(t, string(errors.ErrAuthFailed), errResp.Error.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		rec := f.do(testutil.NewJSONRequest(http.MethodPost, "/api/login", LoginRequest{}), false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("session cookie grants access", func(t *testing.T) {
		rec := f.do(testutil.NewJSONRequest(http.MethodPost, "/api/login", LoginRequest{Password: testPassword}), false)
		require.Equal(t, http.StatusOK, rec.Code)

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == constants.SessionCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		f.runtime.On("Inspect", mock.Anything, mock.Anything).Return(testutil.RunningRecord("web"), nil)
		req := httptest.NewRequest(http.MethodGet, "/api/containers", nil)
		req.AddCookie(cookie)
		assert.Equal(t, http.StatusOK, f.do(req, false).Code)
	})
}

func TestLogoutEndsSession(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/logout", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/containers", nil), true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusSnapshot(t *testing.T) {
	f := newServerFixture(t)
	f.gitRunner.
		OnSuccess("rev-parse --abbrev-ref HEAD", "main\n").
		OnSuccess("rev-parse HEAD", "aaaa\n").
		OnSuccess("rev-parse origin/main", "bbbb\n")
	f.runtime.On("Inspect", mock.Anything, "web").Return(testutil.RunningRecord("web"), nil)
	f.runtime.On("Inspect", mock.Anything, "db").Return(nil, errors.ContainerNotFound("db"))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/status", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot status.Snapshot
	require.NoError(t, testutil.DecodeJSON(rec.Body, &snapshot))
	require.NotNil(t, snapshot.Git)
	assert.True(t, snapshot.Git.UpdatesAvailable)
	assert.Equal(t, "main", snapshot.Git.CurrentBranch)
	require.Len(t, snapshot.Containers, 1)
	assert.Equal(t, "web", snapshot.Containers[0].Name)
}

func TestPull(t *testing.T) {
	t.Run("already up to date", func(t *testing.T) {
		f := newServerFixture(t)
		f.gitRunner.OnSuccess("pull", "Already up to date.\n")

		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/git/pull", nil), true)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeAPIResponse(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "Already up to date", resp.Message)
	})

	t.Run("diverged", func(t *testing.T) {
		f := newServerFixture(t)
		stderr := "fatal: Not possible to fast-forward, aborting.\n"
		f.gitRunner.OnFailure("pull", stderr, 128)

		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/git/pull", nil), true)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeAPIResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, errors.ErrGitPullRejectedDiverged, resp.Code)
		assert.Equal(t, stderr, resp.Output)
	})
}

func TestFetchRemoteUnreachable(t *testing.T) {
	f := newServerFixture(t)
	f.gitRunner.OnFailure("fetch", "fatal: unable to access 'https://example.com/site.git/': Could not resolve host: example.com", 128)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/git/fetch", nil), true)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeAPIResponse(t, rec)
	assert.Equal(t, errors.ErrGitRemoteUnreachable, resp.Code)
}

func TestRecentCommitsRejectsBadLimit(t *testing.T) {
	f := newServerFixture(t)

	for _, limit := range []string{"0", "-3", "abc", "1000"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/git/commits?limit="+limit, nil), true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %s", limit)
	}
}

func TestGetCommitValidatesHash(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/git/commits/-p", nil), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.gitRunner.Calls(), "invalid hashes never reach git")
}

func TestGetCommitNotFound(t *testing.T) {
	f := newServerFixture(t)
	f.gitRunner.OnFailure("show", "fatal: ambiguous argument 'deadbeef': unknown revision or path not in the working tree.", 128)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/git/commits/deadbeef", nil), true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp, err := testutil.ParseErrorResponse(rec)
	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrGitCommitNotFound), errResp.Error.Code)
}

func TestContainerActions(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		f := newServerFixture(t)
		f.runtime.On("Start", mock.Anything, "web").Return(nil)

		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/web/start", nil), true)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeAPIResponse(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "Container web started", resp.Message)
	})

	t.Run("unmanaged name is rejected", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/ghost/stop", nil), true)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		resp := decodeAPIResponse(t, rec)
		assert.Equal(t, errors.ErrContainerNotManaged, resp.Code)
		f.runtime.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stop uses the grace window", func(t *testing.T) {
		f := newServerFixture(t)
		f.runtime.On("Stop", mock.Anything, "db", constants.DefaultStopTimeout).Return(nil)

		rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/db/stop", nil), true)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.runtime.AssertExpectations(t)
	})
}

func TestStartAllReportsWhereItStopped(t *testing.T) {
	f := newServerFixture(t)
	f.runtime.On("Start", mock.Anything, "web").Return(nil)
	f.runtime.On("Start", mock.Anything, "db").Return(errors.ContainerOperationFailed("start", "db", assert.AnError))

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/start-all", nil), true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeAPIResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "db", resp.Container)
	assert.Equal(t, []string{"web"}, resp.Completed)
	assert.Equal(t, errors.ErrContainerOperationFailed, resp.Code)
}

func TestUpdateContainerComposeFailure(t *testing.T) {
	f := newServerFixture(t)
	f.compose.OnFailure("pull web", "Error response from daemon: manifest unknown", 1)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/web/update", nil), true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeAPIResponse(t, rec)
	assert.Equal(t, errors.ErrComposeFailed, resp.Code)
	assert.Contains(t, resp.Error, "manifest unknown")
	for _, line := range f.compose.CommandLines() {
		assert.NotContains(t, line, " up ", "up must not run after a failed pull")
	}
}

func TestUpdateAll(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/containers/update-all", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"docker compose -f " + f.composeFile + " down",
		"docker compose -f " + f.composeFile + " pull",
		"docker compose -f " + f.composeFile + " up -d",
	}, f.compose.CommandLines())
}

func TestGetContainer(t *testing.T) {
	f := newServerFixture(t)
	f.runtime.On("Inspect", mock.Anything, "web").Return(testutil.RunningRecord("web"), nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/containers/web", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	var record types.ContainerRecord
	require.NoError(t, testutil.DecodeJSON(rec.Body, &record))
	assert.Equal(t, types.ContainerStateRunning, record.State)
}

func TestListContainersDaemonUnreachable(t *testing.T) {
	f := newServerFixture(t)
	f.runtime.On("Inspect", mock.Anything, "web").Return(nil, errors.DaemonUnreachable(constants.DefaultDockerSocket, assert.AnError))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/containers", nil), true)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil), true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp, err := testutil.ParseErrorResponse(rec)
	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrNotFound), errResp.Error.Code)
}
