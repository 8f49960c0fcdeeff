package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-social-client/internal/config"
)

func TestDefaults(t *testing.T) {
	c := config.New()

	require.Equal(t, "Go Social Client", c.GetAppName())
	require.Equal(t, "./data", c.GetDataFolder())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:5000", c.GetAPIBaseURL())
	require.Equal(t, 20, c.GetFeedPageSize())
	require.Equal(t, "https://identitytoolkit.googleapis.com", c.GetIdentityAuthBaseURL())
	require.Equal(t, "https://accounts.google.com", c.GetOIDCIssuer())
	require.Equal(t, "8089", c.GetOIDCRedirectPort())
	require.Equal(t, 1<<20, c.GetMaxAvatarBytes())
	require.Equal(t, 1024, c.GetMaxAvatarDimension())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("FEED_PAGE_SIZE", "50")
	t.Setenv("IDENTITY_API_KEY", "web-api-key")
	t.Setenv("BLOB_BUCKET", "my-app.appspot.com")

	c := config.New()
	require.Equal(t, "https://api.example.com", c.GetAPIBaseURL())
	require.Equal(t, 50, c.GetFeedPageSize())
	require.Equal(t, "web-api-key", c.GetIdentityAPIKey())
	require.Equal(t, "my-app.appspot.com", c.GetBlobBucket())
}

func TestFeedPageSizeBounds(t *testing.T) {
	c := config.New()

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("FEED_PAGE_SIZE", "lots")
		require.Equal(t, 20, c.GetFeedPageSize())
	})

	t.Run("below minimum", func(t *testing.T) {
		t.Setenv("FEED_PAGE_SIZE", "0")
		require.Equal(t, 20, c.GetFeedPageSize())
	})

	t.Run("above backend cap", func(t *testing.T) {
		t.Setenv("FEED_PAGE_SIZE", "500")
		require.Equal(t, 20, c.GetFeedPageSize())
	})
}
