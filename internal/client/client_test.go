package client

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deckhand/internal/auth"
	"deckhand/internal/config"
	"deckhand/internal/container"
	"deckhand/internal/errors"
	"deckhand/internal/git"
	"deckhand/internal/server"
	"deckhand/internal/status"
	"deckhand/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

type remoteFixture struct {
	server    *httptest.Server
	gitRunner *testutil.FakeRunner
	runtime   *testutil.MockRuntime
	tokens    *TokenStore
}

func newRemoteFixture(t *testing.T) *remoteFixture {
	t.Helper()

	dir := t.TempDir()
	composeFile := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte("services:\n  web:\n    image: nginx:1.25\n  db:\n    image: postgres:16\n"), 0644))

	gitRunner := testutil.NewFakeRunner()
	rt := testutil.NewMockRuntime()

	gitMgr := git.New(config.GitConfig{RepoPath: dir, Remote: "origin", Branch: "main"}, gitRunner, nil)
	containerMgr := container.NewManager(
		config.DockerConfig{ComposeFile: composeFile, Containers: []string{"web", "db"}},
		rt, container.NewCompose(composeFile, testutil.NewFakeRunner(), time.Minute), nil)

	authenticator, err := auth.NewAuthenticator(testPassword, time.Hour)
	require.NoError(t, err)

	srv := server.New(nil, server.Dependencies{
		Git:        gitMgr,
		Containers: containerMgr,
		Status:     status.NewAggregator(gitMgr, containerMgr),
		Auth:       authenticator,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &remoteFixture{
		server:    ts,
		gitRunner: gitRunner,
		runtime:   rt,
		tokens:    NewTokenStoreAt(filepath.Join(dir, "sessions.json")),
	}
}

func (f *remoteFixture) client(t *testing.T, password string) *Client {
	t.Helper()
	c, err := New(f.server.URL, password, WithTokenStore(f.tokens))
	require.NoError(t, err)
	return c
}

func TestClientLogsInOnDemand(t *testing.T) {
	f := newRemoteFixture(t)
	f.runtime.On("Inspect", mock.Anything, mock.Anything).Return(testutil.RunningRecord("web"), nil)
	c := f.client(t, testPassword)

	records, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	saved, err := f.tokens.Load(c.BaseURL())
	require.NoError(t, err)
	assert.NotEmpty(t, saved, "session token is remembered")
}

func TestClientLogsInAgainWhenSessionIsRejected(t *testing.T) {
	f := newRemoteFixture(t)
	f.runtime.On("Inspect", mock.Anything, mock.Anything).Return(testutil.RunningRecord("web"), nil)
	require.NoError(t, f.tokens.Save(f.server.URL, "stale-token"))
	c := f.client(t, testPassword)

	_, err := c.ListContainers(context.Background())
	require.NoError(t, err)

	saved, err := f.tokens.Load(c.BaseURL())
	require.NoError(t, err)
	assert.NotEqual(t, "stale-token", saved)
}

func TestClientWithoutPassword(t *testing.T) {
	f := newRemoteFixture(t)
	c := f.client(t, "")

	_, err := c.ListContainers(context.Background())

	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
}

func TestClientWrongPassword(t *testing.T) {
	f := newRemoteFixture(t)
	c := f.client(t, "guess")

	_, err := c.ListContainers(context.Background())

	assert.True(t, errors.HasCode(err, errors.ErrAuthFailed))
}

func TestClientKeepsErrorCodes(t *testing.T) {
	f := newRemoteFixture(t)
	c := f.client(t, testPassword)
	ctx := context.Background()

	_, err := c.GetContainer(ctx, "ghost")
	assert.True(t, errors.HasCode(err, errors.ErrContainerNotManaged))

	stderr := "fatal: Not possible to fast-forward, aborting.\n"
	f.gitRunner.OnFailure("pull", stderr, 128)
	_, err = c.Pull(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrGitPullRejectedDiverged))
	de, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, stderr, de.Output)
}

func TestClientPull(t *testing.T) {
	f := newRemoteFixture(t)
	f.gitRunner.OnSuccess("pull", "Updating a1b2c3d..e4f5a6b\nFast-forward\n 2 files changed, 8 insertions(+), 3 deletions(-)\n")
	c := f.client(t, testPassword)

	outcome, err := c.Pull(context.Background())

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.AlreadyUpToDate)
	assert.Equal(t, 2, outcome.FilesChanged)
}

func TestClientBulkActionPartialFailure(t *testing.T) {
	f := newRemoteFixture(t)
	f.runtime.On("Stop", mock.Anything, "web", mock.Anything).Return(nil)
	f.runtime.On("Stop", mock.Anything, "db", mock.Anything).Return(errors.ContainerOperationFailed("stop", "db", assert.AnError))
	controller := NewContainerController(f.client(t, testPassword))

	result := controller.StopAll(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "db", result.Container)
	assert.Equal(t, []string{"web"}, result.Completed)
	assert.Equal(t, errors.ErrContainerOperationFailed, result.Kind)
}

func TestClientSingleActionError(t *testing.T) {
	f := newRemoteFixture(t)
	f.runtime.On("Restart", mock.Anything, "web", mock.Anything).Return(errors.ContainerNotFound("web"))
	controller := NewContainerController(f.client(t, testPassword))

	err := controller.Restart(context.Background(), "web")

	assert.True(t, errors.HasCode(err, errors.ErrContainerNotFound))
}

func TestClientServerUnreachable(t *testing.T) {
	f := newRemoteFixture(t)
	url := f.server.URL
	f.server.Close()

	c, err := New(url, "", WithTokenStore(f.tokens))
	require.NoError(t, err)

	_, err = c.ListContainers(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrServerUnreachable))

	snapshot := NewStatusProvider(c).GetSnapshot(context.Background())
	assert.NotEmpty(t, snapshot.GitError)
	assert.NotEmpty(t, snapshot.ContainersError)
}

func TestTokenStore(t *testing.T) {
	ts := NewTokenStoreAt(filepath.Join(t.TempDir(), "nested", "sessions.json"))

	token, err := ts.Load("http://a")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ts.Save("http://a", "one"))
	require.NoError(t, ts.Save("http://b", "two"))
	require.NoError(t, ts.Save("http://a", ""))

	token, _ = ts.Load("http://a")
	assert.Empty(t, token)
	token, _ = ts.Load("http://b")
	assert.Equal(t, "two", token)

	var nilStore *TokenStore
	assert.NoError(t, nilStore.Save("http://a", "x"))
}
