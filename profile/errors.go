package profile

import "errors"

// UploadErr covers failures anywhere in the avatar pipeline: decoding,
// compression, blob upload or the final profile update.
var UploadErr = errors.New("avatar upload failed")
