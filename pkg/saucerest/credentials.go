package saucerest

import "encoding/base64"

// Credentials identify the account requests are made for. Either field may
// be empty; the server then rejects authenticated endpoints with 401.
type Credentials struct {
	Username  string
	AccessKey string
}

// AuthorizationHeader returns the HTTP Basic value for c.
func (c Credentials) AuthorizationHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.AccessKey))
}

// String masks the access key so credentials can be logged.
func (c Credentials) String() string {
	if c.AccessKey == "" {
		return c.Username + ":"
	}
	return c.Username + ":****"
}

// GoString masks the access key for %#v as well.
func (c Credentials) GoString() string {
	return "saucerest.Credentials{Username:" + c.Username + ", AccessKey:****}"
}
