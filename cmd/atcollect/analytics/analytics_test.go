package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/analytics-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
)

type recordingClient struct {
	messages []analytics.Message
}

func (r *recordingClient) Enqueue(msg analytics.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingClient) Close() error { return nil }

func useConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(directory.UserConfigPathEnv, path)
	return path
}

func Test_IdentityPopulate(t *testing.T) {
	id := &Identity{AnonymousID: "anon"}

	page := id.Populate(analytics.Page{Name: "CLI Execute"}).(analytics.Page)
	assert.Equal(t, "anon", page.AnonymousId)

	track := id.Populate(analytics.Track{Event: "collect", AnonymousId: "other"}).(analytics.Track)
	assert.Equal(t, "other", track.AnonymousId)
}

func Test_ProxyClientDisabled(t *testing.T) {
	inner := &recordingClient{}
	c := &proxyClient{Client: inner, identity: &Identity{AnonymousID: "anon"}}

	require.NoError(t, c.Enqueue(analytics.Page{Name: "a"}))
	c.Disable(true)
	require.NoError(t, c.Enqueue(analytics.Page{Name: "b"}))

	require.Len(t, inner.messages, 1)
	assert.Equal(t, "anon", inner.messages[0].(analytics.Page).AnonymousId)
}

func Test_GetClientFreshConfig(t *testing.T) {
	path := useConfig(t)

	client, err := GetClient()
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, Noop(), client)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "config must not be written")
}

func Test_GetClientEnabledWithoutKey(t *testing.T) {
	useConfig(t)
	cfg, err := directory.GetUserConfig()
	require.NoError(t, err)
	SetEnabled(cfg, true)
	require.NoError(t, directory.WriteConfig(cfg))

	client, err := GetClient()
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, Noop(), client)
}

func Test_GetClientEnabled(t *testing.T) {
	useConfig(t)
	cfg, err := directory.GetUserConfig()
	require.NoError(t, err)
	SetEnabled(cfg, true)
	cfg.Set(directory.AnalyticsCfgKey+".writekey", "test-key")
	cfg.Set(directory.AnalyticsCfgKey+".endpoint", "http://127.0.0.1:1")
	require.NoError(t, directory.WriteConfig(cfg))

	client, err := GetClient()
	require.NoError(t, err)
	defer client.Close()

	proxy, ok := client.(*proxyClient)
	require.True(t, ok)
	assert.Equal(t, cfg.GetString(directory.AnalyticsCfgKey+".cid"), proxy.identity.AnonymousID)
}

func Test_Load(t *testing.T) {
	useConfig(t)
	cfg, err := directory.GetUserConfig()
	require.NoError(t, err)

	conf, err := Load(cfg)
	require.NoError(t, err)
	assert.True(t, conf.Disabled)
	assert.Empty(t, conf.ClientID)

	cfg.Set(directory.AnalyticsCfgKey+".cid", "abc")
	conf, err = Load(cfg)
	require.NoError(t, err)
	assert.True(t, conf.Disabled)
	assert.Equal(t, "abc", conf.ClientID)

	SetEnabled(cfg, true)
	conf, err = Load(cfg)
	require.NoError(t, err)
	assert.False(t, conf.Disabled)
	assert.Equal(t, "abc", conf.ClientID)

	SetEnabled(cfg, false)
	conf, err = Load(cfg)
	require.NoError(t, err)
	assert.True(t, conf.Disabled)
}
