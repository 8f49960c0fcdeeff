package feed

import "errors"

// FetchErr covers feed page and user lookup failures.
var FetchErr = errors.New("feed fetch failed")
