package config

import "strconv"

type MediaConfig interface {
	GetBlobBaseURL() string
	GetBlobBucket() string
	GetMaxAvatarBytes() int
	GetMaxAvatarDimension() int
}

type Media struct{}

var _ MediaConfig = Media{}

func (Media) GetBlobBaseURL() string {
	return GetEnv("BLOB_BASE_URL", "https://firebasestorage.googleapis.com")
}

func (Media) GetBlobBucket() string {
	return GetEnv("BLOB_BUCKET", "")
}

// GetMaxAvatarBytes returns the byte budget the avatar pipeline compresses
// images down to before upload.
func (Media) GetMaxAvatarBytes() int {
	return envInt("MAX_AVATAR_BYTES", 1<<20)
}

// GetMaxAvatarDimension returns the maximum width/height in pixels of an
// uploaded avatar.
func (Media) GetMaxAvatarDimension() int {
	return envInt("MAX_AVATAR_DIMENSION", 1024)
}

func envInt(envVar string, defaultValue int) int {
	v, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil || v < 1 {
		return defaultValue
	}
	return v
}
