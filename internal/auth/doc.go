// Package auth turns Infor ION API service-account credentials (.ionapi
// files) into ready-to-use Authorization header values.
//
// Tokens are obtained with the OAuth2 resource-owner password grant using
// the service account access and secret keys, then cached and refreshed by
// golang.org/x/oauth2.
package auth
